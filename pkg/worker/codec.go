package worker

import (
	"encoding/json"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Codec is an interface for decoding messages from a message broker into an Event.
type Codec interface {
	// Decode transforms a Watermill message into an Event.
	Decode(topic string, msg *message.Message) (*Event, error)
}

// DefaultCodec is the default implementation of the Codec interface.
// It decodes the relayed JSON envelope into an Event.
type DefaultCodec struct{}

// envelope is used to unmarshal the basic event properties.
type envelope struct {
	Kind        string                 `json:"kind"`
	Body        map[string]interface{} `json:"body"`
	Subscribers []string               `json:"subscribers"`
}

// Decode unmarshals a Watermill message into an Event.
func (DefaultCodec) Decode(topic string, msg *message.Message) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(msg.Metadata))
	for key, value := range msg.Metadata {
		metadata[key] = value
	}

	kind := env.Kind
	if kind == "" {
		kind = msg.Metadata.Get("kind")
	}
	subscribers := env.Subscribers
	if len(subscribers) == 0 {
		if raw := msg.Metadata.Get("subscribers"); raw != "" {
			subscribers = strings.Split(raw, ",")
		}
	}

	return &Event{
		Kind:        kind,
		Topic:       topic,
		Subscribers: subscribers,
		Metadata:    metadata,
		Payload:     json.RawMessage(msg.Payload),
		Body:        env.Body,
	}, nil
}
