// Package lock provides short-lived distributed mutual exclusion on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrBusy is returned when the lock is still held after all attempts.
	ErrBusy = errors.New("lock: held by another owner")
	// ErrNotHeld is returned on release when the lock expired or changed owner.
	ErrNotHeld = errors.New("lock: not held")
)

const defaultPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker acquires named locks.
type Locker interface {
	// Lock acquires key for at most ttl. It waits briefly for a busy key before
	// giving up with ErrBusy.
	Lock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

type tokenGenerator interface {
	Generate() string
}

// Option configures a Redis locker.
type Option func(*Redis)

// WithPrefix sets the key prefix (default "lock:").
func WithPrefix(prefix string) Option {
	return func(r *Redis) { r.prefix = prefix }
}

// WithWait sets how many extra attempts are made for a busy key and the delay between them.
func WithWait(attempts uint64, delay time.Duration) Option {
	return func(r *Redis) {
		r.attempts = attempts
		r.delay = delay
	}
}

// Redis implements Locker with SET NX PX and a token-checked release.
type Redis struct {
	client   redis.UniversalClient
	token    tokenGenerator
	prefix   string
	attempts uint64
	delay    time.Duration
}

// NewRedis builds a Redis locker. token must produce values unique per acquisition.
func NewRedis(client redis.UniversalClient, token tokenGenerator, opts ...Option) *Redis {
	r := &Redis{
		client:   client,
		token:    token,
		prefix:   defaultPrefix,
		attempts: 5,
		delay:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock acquires key.
func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	fk := r.prefix + key
	token := r.token.Generate()

	backoff := retry.WithMaxRetries(r.attempts, retry.NewConstant(max(r.delay, time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, fk, token, ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrBusy)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, r.client, []string{fk}, token).Int()
		if err != nil {
			return fmt.Errorf("lock: release %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}
