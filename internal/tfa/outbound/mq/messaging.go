package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gotfa/internal/pkg/eventbus"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/shared/event"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client   eventbus.Publisher
	ins      instrument.Instrumentation
	uid      uid.NumberID
	attempts uint64
	backoff  time.Duration
}

// NewMessaging builds the tfa event publisher. Failed publishes are retried
// `attempts` times with exponential backoff starting at `backoff`.
func NewMessaging(client eventbus.Publisher, ins instrument.Instrumentation, id uid.NumberID, attempts uint64, backoff time.Duration) *Messaging {
	return &Messaging{
		client:   client,
		ins:      ins,
		uid:      id,
		attempts: attempts,
		backoff:  max(backoff, time.Millisecond),
	}
}

func (m *Messaging) PublishTFAEnabled(ctx context.Context, msg usecase.TFAEvent) error {
	return m.publish(ctx, "PublishTFAEnabled", event.TFAEnabledDestination, msg)
}

func (m *Messaging) PublishTFADisabled(ctx context.Context, msg usecase.TFAEvent) error {
	return m.publish(ctx, "PublishTFADisabled", event.TFADisabledDestination, msg)
}

func (m *Messaging) PublishTFAReplayRejected(ctx context.Context, msg usecase.TFAEvent) error {
	return m.publish(ctx, "PublishTFAReplayRejected", event.TFAReplayRejectedDestination, msg)
}

func (m *Messaging) publish(ctx context.Context, name, destination string, msg usecase.TFAEvent) (err error) {
	ctx, span := m.ins.Tracer("tfa.outbound.mq").Start(ctx, name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(event.TFAMessage{
		ID:         m.uid.Generate(),
		UserID:     msg.UserID,
		OccurredAt: msg.OccurredAt.Unix(),
		Timeslice:  msg.Timeslice,
		Reason:     msg.Reason,
	})
	if err != nil {
		return err
	}

	out := eventbus.Message{
		Key:     []byte(strconv.FormatInt(msg.UserID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}

	backoff := retry.WithMaxRetries(m.attempts, retry.NewExponential(m.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.client.Publish(ctx, destination, out); err != nil {
			if errors.Is(err, eventbus.ErrClosed) || errors.Is(err, eventbus.ErrTopicRequired) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	return err
}
