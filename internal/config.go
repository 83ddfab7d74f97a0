package internal

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the adapter configuration minus the subscriber declarations.
type AppConfig struct {
	// Server holds the webhook server configuration.
	Server struct {
		Port           int    `yaml:"port"`
		ReadTimeoutMS  int64  `yaml:"read_timeout_ms"`
		WriteTimeoutMS int64  `yaml:"write_timeout_ms"`
		IdleTimeoutMS  int64  `yaml:"idle_timeout_ms"`
		ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		RateLimitRPS   int64  `yaml:"rate_limit_rps"`
		RateLimitBurst int64  `yaml:"rate_limit_burst"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		MetricsPath    string `yaml:"metrics_path"`
	} `yaml:"server"`
	// Jira holds the remote instance credentials and webhook settings.
	Jira JiraConfig `yaml:"jira"`
	// Watermill configures the relay transport.
	Watermill WatermillConfig `yaml:"watermill"`
	// Storage optionally configures the persistent subscriber registry.
	Storage StorageConfig `yaml:"storage"`
	// Topics overrides the relay topic per event kind.
	Topics map[string]string `yaml:"topics"`
}

// Config is the full configuration including subscriber declarations.
type Config struct {
	AppConfig   `yaml:",inline"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

// JiraConfig carries the three required credential values plus the optional
// webhook secret. Credentials are never persisted by the adapter.
type JiraConfig struct {
	BaseURL       string `yaml:"base_url"`
	Email         string `yaml:"email"`
	APIToken      string `yaml:"api_token"`
	WebhookSecret string `yaml:"webhook_secret"`
	WebhookPath   string `yaml:"webhook_path"`
}

// SubscriberConfig declares one host-registered listener with its filters.
type SubscriberConfig struct {
	ID          string   `yaml:"id"`
	Event       string   `yaml:"event"`
	ProjectKeys []string `yaml:"project_keys"`
	IssueTypes  []string `yaml:"issue_types"`
	Priorities  []string `yaml:"priorities"`
	Statuses    []string `yaml:"statuses"`
	When        string   `yaml:"when"`
}

// StorageConfig configures the GORM-backed subscriber registry. When the DSN
// is empty the adapter serves subscribers from this file only.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Table       string `yaml:"table"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// WatermillConfig holds the configuration for the relay transport.
type WatermillConfig struct {
	Driver     string           `yaml:"driver"`
	Drivers    []string         `yaml:"drivers"`
	GoChannel  GoChannelConfig  `yaml:"gochannel"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	NATS       NATSConfig       `yaml:"nats"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	SQL        SQLConfig        `yaml:"sql"`
	HTTP       HTTPConfig       `yaml:"http"`
	RiverQueue RiverQueueConfig `yaml:"riverqueue"`
}

// GoChannelConfig holds configuration for the in-process pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer            int64 `yaml:"output_buffer"`
	Persistent                     bool  `yaml:"persistent"`
	BlockPublishUntilSubscriberAck bool  `yaml:"block_publish_until_subscriber_ack"`
}

// KafkaConfig holds configuration for the Kafka pub/sub.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// NATSConfig holds configuration for the NATS streaming pub/sub.
type NATSConfig struct {
	ClusterID      string `yaml:"cluster_id"`
	ClientID       string `yaml:"client_id"`
	ClientIDSuffix string `yaml:"client_id_suffix"`
	URL            string `yaml:"url"`
	Durable        string `yaml:"durable"`
}

// AMQPConfig holds configuration for the AMQP pub/sub.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// SQLConfig holds configuration for the SQL pub/sub.
type SQLConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	Dialect          string `yaml:"dialect"`
	ConsumerGroup    string `yaml:"consumer_group"`
	InitializeSchema bool   `yaml:"initialize_schema"`
}

// HTTPConfig holds configuration for the HTTP publisher.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
}

// RiverQueueConfig holds configuration for the River jobs-table publisher.
type RiverQueueConfig struct {
	Driver      string   `yaml:"driver"`
	DSN         string   `yaml:"dsn"`
	Table       string   `yaml:"table"`
	Queue       string   `yaml:"queue"`
	Kind        string   `yaml:"kind"`
	MaxAttempts int      `yaml:"max_attempts"`
	Priority    int      `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

// LoadConfig loads the full configuration from a YAML file. It expands
// environment variables, applies defaults, and normalizes subscriber entries.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg.AppConfig)
	normalized, err := normalizeSubscribers(cfg.Subscribers)
	if err != nil {
		return cfg, err
	}
	cfg.Subscribers = normalized
	return cfg, nil
}

// BuildSubscribers compiles subscriber declarations into runtime subscribers,
// including their filter expressions.
func BuildSubscribers(cfgs []SubscriberConfig) ([]Subscriber, error) {
	subs := make([]Subscriber, 0, len(cfgs))
	for _, c := range cfgs {
		kind, ok := KindFromString(c.Event)
		if !ok {
			return nil, fmt.Errorf("subscriber %s: unknown event kind %q", c.ID, c.Event)
		}
		when, err := CompileWhen(c.When)
		if err != nil {
			return nil, fmt.Errorf("subscriber %s: %w", c.ID, err)
		}
		subs = append(subs, Subscriber{
			ID:   c.ID,
			Kind: kind,
			Filter: FilterConfig{
				ProjectKeys: c.ProjectKeys,
				IssueTypes:  c.IssueTypes,
				Priorities:  c.Priorities,
				Statuses:    c.Statuses,
			},
			When: when,
		})
	}
	return subs, nil
}

// TopicsFromConfig merges the configured per-kind topic overrides over the
// defaults.
func TopicsFromConfig(overrides map[string]string) (map[EventKind]string, error) {
	topics := DefaultTopics()
	for name, topic := range overrides {
		kind, ok := KindFromString(name)
		if !ok {
			return nil, fmt.Errorf("topics: unknown event kind %q", name)
		}
		if strings.TrimSpace(topic) == "" {
			return nil, fmt.Errorf("topics: empty topic for %q", name)
		}
		topics[kind] = strings.TrimSpace(topic)
	}
	return topics, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Jira.WebhookPath == "" {
		cfg.Jira.WebhookPath = "/webhooks/jira"
	}
	if cfg.Watermill.Driver == "" {
		cfg.Watermill.Driver = "gochannel"
	}
	if cfg.Watermill.GoChannel.OutputChannelBuffer == 0 {
		cfg.Watermill.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.Watermill.HTTP.Mode == "" {
		cfg.Watermill.HTTP.Mode = "topic_url"
	}
	if cfg.Watermill.RiverQueue.Table == "" {
		cfg.Watermill.RiverQueue.Table = "river_job"
	}
	if cfg.Watermill.RiverQueue.Queue == "" {
		cfg.Watermill.RiverQueue.Queue = "default"
	}
	if cfg.Watermill.RiverQueue.Kind == "" {
		cfg.Watermill.RiverQueue.Kind = "jiraflows.event"
	}
	if cfg.Watermill.RiverQueue.MaxAttempts == 0 {
		cfg.Watermill.RiverQueue.MaxAttempts = 25
	}
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "jiraflows_subscribers"
	}
}

func normalizeSubscribers(subs []SubscriberConfig) ([]SubscriberConfig, error) {
	out := make([]SubscriberConfig, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		sub.ID = strings.TrimSpace(sub.ID)
		sub.Event = strings.TrimSpace(sub.Event)
		sub.When = strings.TrimSpace(sub.When)
		if sub.ID == "" || sub.Event == "" {
			return nil, fmt.Errorf("subscriber %d is missing id or event", i)
		}
		if _, ok := KindFromString(sub.Event); !ok {
			return nil, fmt.Errorf("subscriber %s: unknown event kind %q", sub.ID, sub.Event)
		}
		out = append(out, sub)
	}
	return out, nil
}
