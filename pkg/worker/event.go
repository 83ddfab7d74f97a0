package worker

import "encoding/json"

// Event represents a relayed Jira message received by the worker.
type Event struct {
	// Kind is the event kind (e.g. "issueCreated", "commentCreated").
	Kind string `json:"kind"`
	// Topic is the name of the topic the message was received on.
	Topic string `json:"topic"`
	// Subscribers lists the subscriber IDs this event was addressed to.
	Subscribers []string `json:"subscribers"`
	// Metadata contains message-broker-specific metadata.
	Metadata map[string]string `json:"metadata"`
	// Payload is the raw JSON payload of the message.
	Payload json.RawMessage `json:"payload"`
	// Body is the normalized event body.
	Body map[string]interface{} `json:"body"`
}

// AddressedTo reports whether the event names the given subscriber ID. An
// event with no subscriber list is addressed to everyone.
func (e *Event) AddressedTo(id string) bool {
	if len(e.Subscribers) == 0 {
		return true
	}
	for _, sub := range e.Subscribers {
		if sub == id {
			return true
		}
	}
	return false
}
