package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacelift-io/flows-app-jira/internal"
	"github.com/spacelift-io/flows-app-jira/pkg/jira"
	"github.com/spacelift-io/flows-app-jira/pkg/worker"

	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to app config")
	driver := flag.String("driver", "", "Override subscriber driver (amqp|nats|kafka|sql|gochannel)")
	subscriberID := flag.String("subscriber", "", "Only handle events addressed to this subscriber ID")
	flag.Parse()

	log.SetPrefix("jiraflows/worker-example ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	transport := config.Watermill
	if *driver != "" {
		transport.Driver = *driver
		transport.Drivers = nil
	}

	sub, err := worker.BuildSubscriber(transport)
	if err != nil {
		log.Fatalf("subscriber: %v", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.Printf("subscriber close: %v", err)
		}
	}()

	client := jira.NewClient(jira.Config{
		BaseURL:  config.Jira.BaseURL,
		Email:    config.Jira.Email,
		APIToken: config.Jira.APIToken,
	})

	topics, err := internal.TopicsFromConfig(config.Topics)
	if err != nil {
		log.Fatalf("topics: %v", err)
	}

	wk := worker.New(
		worker.WithSubscriber(sub),
		worker.WithTopics(topics[internal.IssueCreated], topics[internal.CommentCreated]),
		worker.WithConcurrency(5),
		worker.WithListener(worker.Listener{
			OnStart: func(ctx context.Context) { log.Println("worker started") },
			OnExit:  func(ctx context.Context) { log.Println("worker stopped") },
			OnError: func(ctx context.Context, evt *worker.Event, err error) {
				log.Printf("worker error: %v", err)
			},
			OnMessageFinish: func(ctx context.Context, evt *worker.Event, err error) {
				log.Printf("finished topic=%s kind=%s err=%v", evt.Topic, evt.Kind, err)
			},
		}),
	)

	wk.HandleTopic(topics[internal.IssueCreated], func(ctx context.Context, evt *worker.Event) error {
		if *subscriberID != "" && !evt.AddressedTo(*subscriberID) {
			return nil
		}
		if broker := evt.Metadata["driver"]; broker != "" {
			log.Printf("driver=%s topic=%s kind=%s", broker, evt.Topic, evt.Kind)
		}

		issue, _ := evt.Body["issue"].(map[string]interface{})
		key, _ := issue["key"].(string)
		summary, _ := issue["summary"].(string)
		log.Printf("new issue %s: %s (subscribers=%v)", key, summary, evt.Subscribers)

		// Round trip through the API to show the event carries enough to
		// act on: fetch the freshly created issue.
		if key != "" && config.Jira.BaseURL != "" {
			var fetched struct {
				ID string `json:"id"`
			}
			if err := client.Get(ctx, "/issue/"+key, &fetched); err != nil {
				log.Printf("fetch %s: %v", key, err)
			}
		}
		return nil
	})

	wk.HandleTopic(topics[internal.CommentCreated], func(ctx context.Context, evt *worker.Event) error {
		if *subscriberID != "" && !evt.AddressedTo(*subscriberID) {
			return nil
		}
		comment, _ := evt.Body["comment"].(map[string]interface{})
		log.Printf("new comment %v on topic=%s", comment["id"], evt.Topic)
		return nil
	})

	if err := wk.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
