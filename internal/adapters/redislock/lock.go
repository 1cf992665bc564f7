// Package redislock serialises work on a key across API instances.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

const (
	keyPrefix     = "ticketing_lock:"
	retryInterval = 25 * time.Millisecond
	unlockTimeout = 2 * time.Second
)

// ErrNotAcquired is returned when the context ends before the lock is free.
var ErrNotAcquired = errors.New("lock not acquired")

// unlockScript deletes the key only while it still holds our token.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Locker is a SET NX PX lock. The TTL bounds how long a crashed holder blocks others.
type Locker struct {
	client client
	ttl    time.Duration
	logger *slog.Logger
}

func NewLocker(c *redis.Client, ttl time.Duration, logger *slog.Logger) *Locker {
	return newLocker(c, ttl, logger)
}

func newLocker(c client, ttl time.Duration, logger *slog.Logger) *Locker {
	return &Locker{client: c, ttl: ttl, logger: logger}
}

// NewClient parses a redis:// URL and checks the server is reachable.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	key = keyPrefix + key
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return func() { l.unlock(key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %w", key, ErrNotAcquired, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

func (l *Locker) unlock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	if err := l.client.Eval(ctx, unlockScript, []string{key}, token).Err(); err != nil {
		l.logger.Warn("release lock failed, it expires on its own", "key", key, "err", err)
	}
}

// Noop is used when no redis is configured; the database writes stay authoritative.
type Noop struct{}

func (Noop) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

var (
	_ domain.Locker = (*Locker)(nil)
	_ domain.Locker = Noop{}
)
