package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/hash"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "tfa:pending:"

// Session keeps pending enrollment secrets in Redis, one per session.
// Session IDs are stored only as keyed digests.
type Session struct {
	client redis.UniversalClient
	hash   hash.Hash
	ins    instrument.Instrumentation
}

func NewSession(client redis.UniversalClient, h hash.Hash, ins instrument.Instrumentation) *Session {
	return &Session{client: client, hash: h, ins: ins}
}

func (s *Session) key(sessionID string) (string, error) {
	digest, err := s.hash.Hash(sessionID)
	if err != nil {
		return "", err
	}
	return keyPrefix + string(digest), nil
}

func (s *Session) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("tfa.outbound.session").Start(ctx, name)
}

func (s *Session) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetPendingSecret replaces the pending secret of the session.
func (s *Session) SetPendingSecret(ctx context.Context, sessionID string, p entity.PendingSecret, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "SetPendingSecret")
	defer func() { s.endSpan(span, err) }()

	key, err := s.key(sessionID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	err = s.client.Set(ctx, key, body, ttl).Err()
	return err
}

// TakePendingSecret atomically reads and deletes the pending secret.
// It returns goerror.ErrNotFound when the session holds none.
func (s *Session) TakePendingSecret(ctx context.Context, sessionID string) (_ *entity.PendingSecret, err error) {
	ctx, span := s.startSpan(ctx, "TakePendingSecret")
	defer func() { s.endSpan(span, err) }()

	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p entity.PendingSecret
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Ping checks the Redis connection.
func (s *Session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
