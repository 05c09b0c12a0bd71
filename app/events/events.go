// Package events fans domain events out to in-process or Redis subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

const TopicAccountState = "account_state"

type Event struct {
	Topic   string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Subscriber delivers events until ctx is cancelled, then closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan Event, error)
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}

func encode(topic string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", topic, err)
	}
	return Event{Topic: topic, Payload: data}, nil
}
