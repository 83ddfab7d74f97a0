package main

import (
	"context"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spacelift-io/flows-app-jira/internal"
	"github.com/spacelift-io/flows-app-jira/pkg/api"
	"github.com/spacelift-io/flows-app-jira/pkg/jira"
	"github.com/spacelift-io/flows-app-jira/pkg/storage/subscribers"
	"github.com/spacelift-io/flows-app-jira/webhook"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	client := jira.NewClient(jira.Config{
		BaseURL:  config.Jira.BaseURL,
		Email:    config.Jira.Email,
		APIToken: config.Jira.APIToken,
	})

	configured, err := internal.BuildSubscribers(config.Subscribers)
	if err != nil {
		logger.Fatalf("subscribers: %v", err)
	}

	var registry internal.Registry
	var store *subscribers.Store
	if config.Storage.DSN != "" {
		store, err = subscribers.Open(subscribers.Config{
			Driver:      config.Storage.Driver,
			DSN:         config.Storage.DSN,
			Table:       config.Storage.Table,
			AutoMigrate: config.Storage.AutoMigrate,
		})
		if err != nil {
			logger.Fatalf("storage: %v", err)
		}
		defer store.Close()
		// Configured subscribers are seeded into the store so both sources
		// end up served from one registry.
		for _, sub := range configured {
			if err := store.Upsert(context.Background(), sub); err != nil {
				logger.Fatalf("seed subscriber %s: %v", sub.ID, err)
			}
		}
		registry = store
		logger.Printf("subscriber registry backed by %s storage", config.Storage.Driver)
	} else {
		registry = internal.NewStaticRegistry(configured)
		logger.Printf("subscriber registry serving %d configured subscribers", len(configured))
	}

	topics, err := internal.TopicsFromConfig(config.Topics)
	if err != nil {
		logger.Fatalf("topics: %v", err)
	}

	publisher, err := internal.NewPublisher(config.Watermill)
	if err != nil {
		logger.Fatalf("publisher: %v", err)
	}
	defer publisher.Close()

	dispatcher := internal.NewDispatcher(registry, publisher, topics, internal.NewLogger("dispatch"))

	mux := http.NewServeMux()

	jiraHandler := webhook.NewJiraHandler(
		config.Jira.WebhookSecret,
		dispatcher,
		internal.NewLogger("webhook"),
		config.Server.MaxBodyBytes,
	)
	var ingress http.Handler = jiraHandler
	if config.Server.RateLimitRPS > 0 {
		ingress = internal.NewRateLimitHandler(ingress, config.Server.RateLimitRPS, config.Server.RateLimitBurst, 10*time.Minute)
	}
	mux.Handle(config.Jira.WebhookPath, ingress)
	logger.Printf("jira webhook enabled on %s", config.Jira.WebhookPath)

	apiLogger := internal.NewLogger("api")
	mux.Handle("/v1/blocks", &api.CatalogHandler{Logger: apiLogger})
	mux.Handle("/v1/execute", &api.ExecuteHandler{Client: client, Logger: apiLogger})
	mux.Handle("/v1/sync", &api.SyncHandler{Client: client, Logger: apiLogger})
	if store != nil {
		mux.Handle("/v1/subscribers", &api.SubscribersHandler{Store: store, Logger: apiLogger})
	}

	if config.Server.MetricsEnabled {
		mux.Handle(config.Server.MetricsPath, expvar.Handler())
		logger.Printf("metrics enabled on %s", config.Server.MetricsPath)
	}

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
