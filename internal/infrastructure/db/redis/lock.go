package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL = 30 * time.Second
	lockRetryMin   = 10 * time.Millisecond
	lockRetryMax   = 200 * time.Millisecond
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker provides cross-instance mutual exclusion backed by Redis.
// Key format: lock:<key>
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewLocker creates a Locker. ttl bounds how long a crashed holder can keep a
// key; ttl <= 0 means defaultLockTTL.
func NewLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl, log: log}
}

// Acquire polls SET NX with exponential backoff until the lock is taken or
// ctx is done.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	k := l.key(key)
	token := uuid.NewString()
	wait := lockRetryMin

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock acquire: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > lockRetryMax {
			wait = lockRetryMax
		}
	}

	return func() {
		// Release must run even when the caller's context is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn().Err(err).Str("key", k).Msg("lock release failed, waiting for ttl")
		}
	}, nil
}

func (l *Locker) key(key string) string {
	return "lock:" + key
}
