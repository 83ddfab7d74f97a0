package internal

import (
	"context"
	"log"
)

// Dispatcher fans a classified webhook event out to the subscribers whose
// filters it passes. The relay is a single batched publish per event naming
// all matching subscriber IDs; zero matches means no publish at all.
type Dispatcher struct {
	registry  Registry
	publisher Publisher
	topics    map[EventKind]string
	logger    *log.Logger
}

// DefaultTopics maps each event kind to its relay topic.
func DefaultTopics() map[EventKind]string {
	return map[EventKind]string{
		IssueCreated:    "jira.issue.created",
		IssueUpdated:    "jira.issue.updated",
		CommentCreated:  "jira.comment.created",
		VersionReleased: "jira.version.released",
	}
}

// NewDispatcher creates a Dispatcher. A nil topics map falls back to
// DefaultTopics; a nil logger falls back to the default logger.
func NewDispatcher(registry Registry, publisher Publisher, topics map[EventKind]string, logger *log.Logger) *Dispatcher {
	if topics == nil {
		topics = DefaultTopics()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		registry:  registry,
		publisher: publisher,
		topics:    topics,
		logger:    logger,
	}
}

// Dispatch queries the registry for the event kind, filters the candidates
// against the message body, and publishes one batched event to the kind's
// topic for the matching subset.
func (d *Dispatcher) Dispatch(ctx context.Context, kind EventKind, body map[string]interface{}) error {
	subs, err := d.registry.List(ctx, kind)
	if err != nil {
		return err
	}

	matched := make([]string, 0, len(subs))
	for _, sub := range subs {
		if sub.Matches(body) {
			matched = append(matched, sub.ID)
		}
	}
	d.logger.Printf("dispatch kind=%s candidates=%d matched=%d", kind, len(subs), len(matched))
	if len(matched) == 0 {
		return nil
	}

	IncDispatch(string(kind))
	return d.publisher.Publish(ctx, d.topics[kind], Event{
		Kind:        kind,
		Body:        Normalize(kind, body),
		Subscribers: matched,
	})
}
