package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a single-holder lease used to keep the overdue sweep from
// running on more than one instance at a time. Acquire is SETNX with a
// TTL; renewal only succeeds for the current holder (atomic Lua check),
// so a crashed holder's lease simply expires.
type Lock struct {
	client *redis.Client
	key    string
	holder string
	ttl    time.Duration
}

// NewLock creates a lock on key held as holder (typically the instance ID).
func NewLock(client *redis.Client, key, holder string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, holder: holder, ttl: ttl}
}

var renewScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Acquire returns true when this holder owns the lease, either by taking a
// free lock or by renewing one it already holds.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock setnx %s: %w", l.key, err)
	}
	if ok {
		return true, nil
	}

	result, err := renewScript.Run(ctx, l.client, []string{l.key}, l.holder, l.ttl.Milliseconds()).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("lock renew %s: %w", l.key, err)
	}
	return result == 1, nil
}

// Release drops the lease if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	release := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
	if err := release.Run(ctx, l.client, []string{l.key}, l.holder).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lock release %s: %w", l.key, err)
	}
	return nil
}
