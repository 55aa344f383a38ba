package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverLog writes events to the structured log.
	DriverLog = "log"
	// DriverNSQ selects the NSQ backend.
	DriverNSQ = "nsq"
	// DriverNATS selects the NATS backend.
	DriverNATS = "nats"
	// DriverKafka selects the Kafka backend.
	DriverKafka = "kafka"
	// DriverGooglePubSub selects the Google Pub/Sub backend.
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates an unsupported driver name.
var ErrUnknownDriver = errors.New("eventbus: unknown driver")

// Options groups config for the supported backends.
type Options struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

// NewFromDriver constructs a Publisher by driver name.
func NewFromDriver(ctx context.Context, driver string, opts Options) (Publisher, error) {
	switch strings.TrimSpace(driver) {
	case DriverLog, "":
		return NewLog(), nil
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
