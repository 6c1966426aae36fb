// internal/lock/redis.go
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"finflow-transfer/internal/util"
)

const (
	// DefaultTTL bounds how long a crashed holder can keep a wallet locked.
	DefaultTTL = 30 * time.Second
	keyPrefix  = "finflow:wallet-lock:"
)

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

var errLockBusy = errors.New("lock held by another owner")

// RedisLocker locks wallets across processes with one Redis key per wallet.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker creates a RedisLocker. A non-positive ttl means DefaultTTL.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var _ Locker = (*RedisLocker)(nil)

// Lock acquires one key per wallet in ascending order, polling with backoff
// until ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	token := uuid.NewString()
	ordered := Ordered(ids...)
	held := make([]string, 0, len(ordered))

	for _, id := range ordered {
		key := keyPrefix + id.String()
		if err := l.acquire(ctx, key, token); err != nil {
			l.release(held, token)
			return nil, fmt.Errorf("%w: acquiring lock on wallet %s: %w", util.ErrStorage, id, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 5 * time.Millisecond
	eb.MaxInterval = 100 * time.Millisecond
	eb.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, backoff.WithContext(eb, ctx))
}

// release runs on a fresh context so a cancelled request still frees its keys.
func (l *RedisLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		n, err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Int()
		if err != nil {
			util.GetLogger().Warnw("Failed to release wallet lock", "key", keys[i], "error", err)
			continue
		}
		if n == 0 {
			util.GetLogger().Warnw("Wallet lock expired before release", "key", keys[i], "ttl", l.ttl)
		}
	}
}
