package eventbus_test

import (
	"context"
	"testing"

	"github.com/shandysiswandi/gotfa/internal/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		driver  string
		wantErr error
	}{
		{name: "log", driver: eventbus.DriverLog},
		{name: "empty defaults to log", driver: ""},
		{name: "unknown", driver: "carrier-pigeon", wantErr: eventbus.ErrUnknownDriver},
		{name: "nats without url", driver: eventbus.DriverNATS, wantErr: eventbus.ErrNATSURLRequired},
		{name: "kafka without brokers", driver: eventbus.DriverKafka, wantErr: eventbus.ErrKafkaBrokersRequired},
		{name: "nsq without address", driver: eventbus.DriverNSQ, wantErr: eventbus.ErrNSQProducerAddrRequired},
		{name: "pubsub without project", driver: eventbus.DriverGooglePubSub, wantErr: eventbus.ErrPubSubProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub, err := eventbus.NewFromDriver(ctx, tt.driver, eventbus.Options{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, pub.Close())
		})
	}
}

func TestKafka_PublishValidation(t *testing.T) {
	t.Parallel()

	k, err := eventbus.NewKafka(eventbus.KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	require.NoError(t, err)

	assert.ErrorIs(t, k.Publish(context.Background(), "", eventbus.Message{}), eventbus.ErrTopicRequired)

	require.NoError(t, k.Close())
	assert.ErrorIs(t, k.Publish(context.Background(), "tfa.enabled", eventbus.Message{}), eventbus.ErrClosed)
}

func TestLog_Publish(t *testing.T) {
	t.Parallel()

	l := eventbus.NewLog()
	ctx := context.Background()

	require.NoError(t, l.Publish(ctx, "tfa.enabled", eventbus.Message{Body: []byte(`{}`)}))
	assert.ErrorIs(t, l.Publish(ctx, "", eventbus.Message{}), eventbus.ErrTopicRequired)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, l.Publish(canceled, "tfa.enabled", eventbus.Message{}), context.Canceled)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Publish(ctx, "tfa.enabled", eventbus.Message{}), eventbus.ErrClosed)
}
