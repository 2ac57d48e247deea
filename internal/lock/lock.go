// Package lock keeps two daily-send runs from overlapping.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is held by one owner at a time. A Lock value belongs to a single
// acquisition; use a Factory to get a fresh one per run.
type Lock interface {
	// Acquire tries once and reports whether the lock is now held
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this owner still holds it
	Release(ctx context.Context) error
}

// Factory creates a new Lock for one acquisition
type Factory func() Lock

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLock is a SET NX lock with a TTL and an owner token
type RedisLock struct {
	client redis.UniversalClient
	key    string
	value  string
	ttl    time.Duration
}

// NewRedisLock creates a lock on key
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    fmt.Sprintf("lock:%s", key),
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire tries to set the key
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release deletes the key only if it still carries this owner's token
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// RedisFactory creates Redis locks on the same key
func RedisFactory(client redis.UniversalClient, key string, ttl time.Duration) Factory {
	return func() Lock { return NewRedisLock(client, key, ttl) }
}

// LocalFactory creates in-process locks sharing one mutex. It is used when
// no Redis is configured and a single process serves every trigger.
func LocalFactory() Factory {
	var mu sync.Mutex
	return func() Lock { return &localLock{mu: &mu} }
}

type localLock struct {
	mu   *sync.Mutex
	held bool
}

func (l *localLock) Acquire(ctx context.Context) (bool, error) {
	if l.held {
		return true, nil
	}
	l.held = l.mu.TryLock()
	return l.held, nil
}

func (l *localLock) Release(ctx context.Context) error {
	if l.held {
		l.held = false
		l.mu.Unlock()
	}
	return nil
}

// NewRedisClient connects to the Redis URL and pings it
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
