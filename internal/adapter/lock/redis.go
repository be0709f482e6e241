package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orderstack/order-management/internal/port"
)

const pollInterval = 50 * time.Millisecond

// releaseScript deletes the key only if it still holds our token, so an
// expired lease re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements port.Locker on top of a shared Redis instance using
// SET NX with a per-acquisition token and a fixed lease. The lease guarantees
// a crashed holder cannot wedge the key forever; the critical sections here
// complete well inside it, so renewal is not needed.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker returns a locker with the given lease TTL and acquisition
// wait budget.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// Acquire obtains the named lock, polling until the wait budget elapses.
// Returns port.ErrLockTimeout if the key stays held past the budget, or a
// wrapped error if Redis is unreachable.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (port.Lock, error) {
	token := uuid.NewString()
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock backend unavailable: %w", err)
		}
		if ok {
			return &redisLock{client: l.client, key: key, token: token}, nil
		}

		select {
		case <-deadline.C:
			return nil, port.ErrLockTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

// Release frees the lock. Failures are logged and swallowed: by the time
// Release runs the purchase outcome is already decided, and an expired lease
// amounts to the same end state.
func (k *redisLock) Release(ctx context.Context) {
	released, err := releaseScript.Run(ctx, k.client, []string{k.key}, k.token).Int()
	if err != nil && err != redis.Nil {
		log.Error().Err(err).Str("key", k.key).Msg("failed to release lock")
		return
	}
	if released == 0 {
		log.Debug().Str("key", k.key).Msg("lock lease already expired on release")
	}
}
