package eventbus

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Log is a Publisher that writes each message to the default slog logger.
type Log struct {
	closed atomic.Bool
}

// NewLog returns a log publisher.
func NewLog() *Log {
	return &Log{}
}

// Publish logs the message.
func (l *Log) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validate(ctx, topic); err != nil {
		return err
	}
	if l.closed.Load() {
		return ErrClosed
	}

	slog.InfoContext(ctx, "event published", "topic", topic, "key", string(msg.Key), "headers", msg.Headers, "body", string(msg.Body))
	return nil
}

// Close marks the publisher closed.
func (l *Log) Close() error {
	l.closed.Store(true)
	return nil
}
