package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const channelPrefix = "booking:"

// RedisBus shares events between service instances over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func channelName(topic string) string {
	return channelPrefix + topic
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload interface{}) error {
	event, err := encode(topic, payload)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channelName(topic), []byte(event.Payload)).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, channelName(topic))
	// Receive blocks until redis confirms the subscription.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- Event{Topic: topic, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				default:
					logrus.WithField("topic", topic).Warn("Dropping event for slow subscriber")
				}
			}
		}
	}()

	return out, nil
}

func (b *RedisBus) PingContext(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close is a no-op; the redis client is owned by the caller.
func (b *RedisBus) Close() error {
	return nil
}
