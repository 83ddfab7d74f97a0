package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spacelift-io/flows-app-jira/internal"
)

// capturePublisher records relayed events for assertions.
type capturePublisher struct {
	published int
	lastTopic string
	lastEvent internal.Event
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, event internal.Event) error {
	p.published++
	p.lastTopic = topic
	p.lastEvent = event
	return nil
}

func (p *capturePublisher) PublishForDrivers(ctx context.Context, topic string, event internal.Event, drivers []string) error {
	return p.Publish(ctx, topic, event)
}

func (p *capturePublisher) Close() error { return nil }

func newTestHandler(secret string, subs []internal.Subscriber) (*JiraHandler, *capturePublisher) {
	pub := &capturePublisher{}
	dispatcher := internal.NewDispatcher(internal.NewStaticRegistry(subs), pub, nil, nil)
	return NewJiraHandler(secret, dispatcher, nil, 1<<20), pub
}

const issueCreatedPayload = `{
	"webhookEvent": "jira:issue_created",
	"issue": {
		"id": "10001",
		"key": "PROJ-1",
		"fields": {
			"summary": "Something broke",
			"project": {"key": "PROJ"}
		}
	},
	"user": {"accountId": "abc", "displayName": "Dana"}
}`

// TestJiraHandlerDispatchesToMatchingSubscriber tests the full ingress path:
// signed request in, filtered batched relay out.
func TestJiraHandlerDispatchesToMatchingSubscriber(t *testing.T) {
	handler, pub := newTestHandler("s3cret", []internal.Subscriber{
		{ID: "proj-watcher", Kind: internal.IssueCreated, Filter: internal.FilterConfig{ProjectKeys: []string{"PROJ"}}},
		{ID: "other-watcher", Kind: internal.IssueCreated, Filter: internal.FilterConfig{ProjectKeys: []string{"OTHER"}}},
	})

	body := []byte(issueCreatedPayload)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign(body, "s3cret"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("expected OK body, got %q", rec.Body.String())
	}
	if pub.published != 1 {
		t.Fatalf("expected one relay, got %d", pub.published)
	}
	if pub.lastTopic != "jira.issue.created" {
		t.Fatalf("unexpected topic %q", pub.lastTopic)
	}
	if len(pub.lastEvent.Subscribers) != 1 || pub.lastEvent.Subscribers[0] != "proj-watcher" {
		t.Fatalf("expected only proj-watcher, got %v", pub.lastEvent.Subscribers)
	}
	issue, _ := pub.lastEvent.Body["issue"].(map[string]interface{})
	if issue["key"] != "PROJ-1" || issue["summary"] != "Something broke" {
		t.Fatalf("unexpected relayed issue: %v", issue)
	}
}

// TestJiraHandlerRejectsBadSignature tests that a wrong signature gets a 401 and no relay.
func TestJiraHandlerRejectsBadSignature(t *testing.T) {
	handler, pub := newTestHandler("s3cret", []internal.Subscriber{
		{ID: "all", Kind: internal.IssueCreated},
	})

	body := []byte(issueCreatedPayload)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign(body, "other-secret"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.String() != "Unauthorized" {
		t.Fatalf("expected Unauthorized body, got %q", rec.Body.String())
	}
	if pub.published != 0 {
		t.Fatalf("expected no relay, got %d", pub.published)
	}
}

// TestJiraHandlerNoSecretSkipsVerification tests that ingress without a configured secret accepts unsigned requests.
func TestJiraHandlerNoSecretSkipsVerification(t *testing.T) {
	handler, pub := newTestHandler("", []internal.Subscriber{
		{ID: "all", Kind: internal.IssueCreated},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", bytes.NewReader([]byte(issueCreatedPayload)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if pub.published != 1 {
		t.Fatalf("expected relay, got %d", pub.published)
	}
}

// TestJiraHandlerRejectsInvalidJSON tests that an unparseable body gets a 400.
func TestJiraHandlerRejectsInvalidJSON(t *testing.T) {
	handler, _ := newTestHandler("", nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "Bad Request" {
		t.Fatalf("expected Bad Request body, got %q", rec.Body.String())
	}
}

// TestJiraHandlerAcknowledgesUnknownEvent tests that unrecognized events are accepted without relaying.
func TestJiraHandlerAcknowledgesUnknownEvent(t *testing.T) {
	handler, pub := newTestHandler("", []internal.Subscriber{
		{ID: "all", Kind: internal.IssueCreated},
	})

	body := []byte(`{"webhookEvent":"jira:issue_deleted","issue":{"key":"PROJ-9"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/jira", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if pub.published != 0 {
		t.Fatalf("expected no relay for unknown event, got %d", pub.published)
	}
}

// TestJiraHandlerMethodNotAllowed tests that non-POST requests are refused.
func TestJiraHandlerMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler("", nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/jira", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
