// Package eventbus publishes domain events to a message broker.
//
// Drivers wrap NATS, Kafka, NSQ and Google Pub/Sub. The log driver writes
// events to the structured log instead and needs no broker.
package eventbus

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("eventbus: topic is required")
	// ErrClosed is returned when publishing on a closed publisher.
	ErrClosed = errors.New("eventbus: publisher is closed")
)

// Publisher publishes messages to a topic (subject for NATS).
type Publisher interface {
	io.Closer

	Publish(ctx context.Context, topic string, msg Message) error
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	// Key is used by Kafka for partitioning and by Pub/Sub as ordering key.
	Key []byte
	// Body is the payload.
	Body []byte
	// Headers are sent as headers or attributes where the broker supports them.
	Headers map[string]string
}

func validate(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}
