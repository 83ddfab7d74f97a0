package worker

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TestDefaultCodecDecodesEnvelope tests that the relayed JSON envelope is
// decoded into an Event with body, subscribers and metadata.
func TestDefaultCodecDecodesEnvelope(t *testing.T) {
	msg := message.NewMessage("test-1", []byte(`{
		"kind": "issueCreated",
		"body": {"issue": {"key": "PROJ-1", "summary": "Broken build"}},
		"subscribers": ["ops", "eng"]
	}`))
	msg.Metadata.Set("driver", "gochannel")

	evt, err := DefaultCodec{}.Decode("jira.issue.created", msg)
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if evt.Kind != "issueCreated" {
		t.Fatalf("expected kind issueCreated, got %q", evt.Kind)
	}
	if evt.Topic != "jira.issue.created" {
		t.Fatalf("expected the topic to be carried, got %q", evt.Topic)
	}
	if len(evt.Subscribers) != 2 || evt.Subscribers[0] != "ops" {
		t.Fatalf("unexpected subscribers: %v", evt.Subscribers)
	}
	issue, ok := evt.Body["issue"].(map[string]interface{})
	if !ok || issue["key"] != "PROJ-1" {
		t.Fatalf("unexpected body: %v", evt.Body)
	}
	if evt.Metadata["driver"] != "gochannel" {
		t.Fatalf("expected message metadata to be copied, got %v", evt.Metadata)
	}
	if len(evt.Payload) == 0 {
		t.Fatal("expected the raw payload to be retained")
	}
}

// TestDefaultCodecMetadataFallbacks tests that kind and subscribers fall back
// to message metadata when the envelope does not carry them.
func TestDefaultCodecMetadataFallbacks(t *testing.T) {
	msg := message.NewMessage("test-2", []byte(`{"body": {"version": {"name": "1.2.0"}}}`))
	msg.Metadata.Set("kind", "versionReleased")
	msg.Metadata.Set("subscribers", "releases,ops")

	evt, err := DefaultCodec{}.Decode("jira.version.released", msg)
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if evt.Kind != "versionReleased" {
		t.Fatalf("expected kind from metadata, got %q", evt.Kind)
	}
	if len(evt.Subscribers) != 2 || evt.Subscribers[1] != "ops" {
		t.Fatalf("expected subscribers from metadata, got %v", evt.Subscribers)
	}
}

// TestDefaultCodecInvalidPayload tests that a non-JSON payload fails to decode.
func TestDefaultCodecInvalidPayload(t *testing.T) {
	msg := message.NewMessage("test-3", []byte("not json"))
	if _, err := (DefaultCodec{}).Decode("jira.issue.created", msg); err == nil {
		t.Fatal("expected a decode error")
	}
}

// TestEventAddressedTo tests that an empty subscriber list addresses everyone
// and a populated one only its members.
func TestEventAddressedTo(t *testing.T) {
	broadcast := &Event{Kind: "issueCreated"}
	if !broadcast.AddressedTo("anyone") {
		t.Fatal("expected an event without subscribers to address everyone")
	}

	targeted := &Event{Kind: "issueCreated", Subscribers: []string{"ops", "eng"}}
	if !targeted.AddressedTo("ops") {
		t.Fatal("expected the event to address a listed subscriber")
	}
	if targeted.AddressedTo("sales") {
		t.Fatal("expected the event not to address an unlisted subscriber")
	}
}

// TestWorkerRequiresSubscriberAndTopics tests that Run fails fast without a
// subscriber or topics.
func TestWorkerRequiresSubscriberAndTopics(t *testing.T) {
	if err := New().Run(context.Background()); err == nil {
		t.Fatal("expected an error without a subscriber")
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubSub.Close()
	if err := New(WithSubscriber(pubSub)).Run(context.Background()); err == nil {
		t.Fatal("expected an error without topics")
	}
}

// TestHandleTopicRejectsUnsubscribed tests that a handler for a topic outside
// the subscribed set is not registered.
func TestHandleTopicRejectsUnsubscribed(t *testing.T) {
	w := New(WithTopics("jira.issue.created"))
	w.HandleTopic("jira.issue.deleted", func(ctx context.Context, evt *Event) error { return nil })
	if _, ok := w.topicHandlers["jira.issue.deleted"]; ok {
		t.Fatal("expected the handler not to be registered")
	}

	w.HandleTopic("jira.issue.created", func(ctx context.Context, evt *Event) error { return nil })
	if _, ok := w.topicHandlers["jira.issue.created"]; !ok {
		t.Fatal("expected the handler to be registered")
	}
}

// TestWorkerDispatchesToKindHandler tests an end-to-end round trip through a
// go-channel broker: a published envelope reaches the handler registered for
// its kind.
func TestWorkerDispatchesToKindHandler(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubSub.Close()

	received := make(chan *Event, 1)
	w := New(
		WithSubscriber(pubSub),
		WithTopics("jira.comment.created"),
		WithConcurrency(2),
	)
	w.HandleKind("commentCreated", func(ctx context.Context, evt *Event) error {
		received <- evt
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the subscription a moment to be established before publishing.
	time.Sleep(50 * time.Millisecond)

	msg := message.NewMessage("test-4", []byte(`{
		"kind": "commentCreated",
		"body": {"comment": {"id": "5001"}},
		"subscribers": ["ops"]
	}`))
	if err := pubSub.Publish("jira.comment.created", msg); err != nil {
		t.Fatalf("publishing message: %v", err)
	}

	select {
	case evt := <-received:
		if evt.Kind != "commentCreated" || evt.Topic != "jira.comment.created" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the handler")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the worker to stop")
	}
}

// TestMiddlewareWrapsHandlers tests that middleware runs around the handler
// in registration order.
func TestMiddlewareWrapsHandlers(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, evt *Event) error {
				order = append(order, name)
				return next(ctx, evt)
			}
		}
	}

	w := New(WithMiddleware(mw("outer"), mw("inner")))
	handler := w.wrap(func(ctx context.Context, evt *Event) error {
		order = append(order, "handler")
		return nil
	})
	if err := handler(context.Background(), &Event{}); err != nil {
		t.Fatalf("running handler: %v", err)
	}
	if len(order) != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Fatalf("unexpected middleware order: %v", order)
	}
}
