package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotAcquired is returned when the lock is held by another request.
var ErrNotAcquired = fmt.Errorf("lock already held")

// Locker serializes mutating operations on a shared key. Payment and
// dispute services take a per-booking lock so concurrent confirms,
// initiates and resolutions cannot interleave.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RedisLocker implements Locker with a Redis SET NX lease. The lock works
// across service instances, which matters because no in-process memory is
// shared between deployments.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// releaseScript deletes the lock only if it still holds our token, so an
// expired lease taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("component", "locker")),
	}
}

const (
	acquireRetries = 10
	acquireBackoff = 100 * time.Millisecond
)

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.New().String()
	lockKey := "lock:" + key

	acquired := false
	for attempt := 0; attempt < acquireRetries; attempt++ {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(acquireBackoff):
		}
	}
	if !acquired {
		return fmt.Errorf("acquire lock %s: %w", key, ErrNotAcquired)
	}

	defer func() {
		// Release on a fresh context; the request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.log.Warn("Failed to release lock",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}()

	return fn(ctx)
}
