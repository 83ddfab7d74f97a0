package internal

import "context"

// Subscriber is a host-registered listener for a single event kind, carrying
// its own filter criteria.
type Subscriber struct {
	ID     string
	Kind   EventKind
	Filter FilterConfig
	When   *WhenExpr
}

// Matches applies both the structured filter dimensions and the optional
// when-expression to a message body.
func (s Subscriber) Matches(body map[string]interface{}) bool {
	return s.Filter.Matches(body) && s.When.Evaluate(body)
}

// Registry answers which subscribers are registered against an event kind.
// The adapter does not own the registrations; implementations query the host
// platform (or its configured stand-in) at dispatch time.
type Registry interface {
	List(ctx context.Context, kind EventKind) ([]Subscriber, error)
}

// StaticRegistry serves subscribers declared in the adapter configuration.
type StaticRegistry struct {
	byKind map[EventKind][]Subscriber
}

// NewStaticRegistry indexes the given subscribers by event kind.
func NewStaticRegistry(subs []Subscriber) *StaticRegistry {
	byKind := make(map[EventKind][]Subscriber, len(subs))
	for _, sub := range subs {
		byKind[sub.Kind] = append(byKind[sub.Kind], sub)
	}
	return &StaticRegistry{byKind: byKind}
}

func (r *StaticRegistry) List(_ context.Context, kind EventKind) ([]Subscriber, error) {
	return r.byKind[kind], nil
}
