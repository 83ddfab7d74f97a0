package internal

// EventKind identifies one of the supported Jira webhook event types.
type EventKind string

const (
	IssueCreated    EventKind = "issueCreated"
	IssueUpdated    EventKind = "issueUpdated"
	CommentCreated  EventKind = "commentCreated"
	VersionReleased EventKind = "versionReleased"
)

// webhookEvents maps the `webhookEvent` discriminator values Jira sends to
// the internal event kinds.
var webhookEvents = map[string]EventKind{
	"jira:issue_created":    IssueCreated,
	"jira:issue_updated":    IssueUpdated,
	"comment_created":       CommentCreated,
	"jira:version_released": VersionReleased,
}

// Classify inspects the webhookEvent discriminator of a parsed payload and
// returns the matching event kind. The second return value is false for
// payloads that carry no discriminator or an unrecognized one.
func Classify(payload map[string]interface{}) (EventKind, bool) {
	name, _ := payload["webhookEvent"].(string)
	kind, ok := webhookEvents[name]
	return kind, ok
}

// KindFromString resolves an event kind from its name ("issueCreated" etc.).
func KindFromString(name string) (EventKind, bool) {
	switch EventKind(name) {
	case IssueCreated, IssueUpdated, CommentCreated, VersionReleased:
		return EventKind(name), true
	}
	return "", false
}

// Event is the unit handed to the publisher: a classified webhook payload
// normalized per kind, addressed to the matching subscribers.
type Event struct {
	Kind        EventKind              `json:"kind"`
	Body        map[string]interface{} `json:"body"`
	Subscribers []string               `json:"subscribers,omitempty"`
}

// ExtractBody builds the normalized message body for a classified payload.
// Each kind relays a fixed set of sub-payloads; missing sub-payloads are
// simply absent from the result, never an error.
func ExtractBody(kind EventKind, payload map[string]interface{}) map[string]interface{} {
	body := make(map[string]interface{}, 3)
	switch kind {
	case IssueCreated:
		copyField(body, payload, "issue")
		copyField(body, payload, "user")
		copyField(body, payload, "timestamp")
	case IssueUpdated:
		copyField(body, payload, "issue")
		copyField(body, payload, "user")
		copyField(body, payload, "changelog")
		copyField(body, payload, "timestamp")
	case CommentCreated:
		copyField(body, payload, "issue")
		copyField(body, payload, "comment")
	case VersionReleased:
		copyField(body, payload, "version")
		copyField(body, payload, "user")
	}
	return body
}

func copyField(dst, src map[string]interface{}, key string) {
	if v, ok := src[key]; ok && v != nil {
		dst[key] = v
	}
}
