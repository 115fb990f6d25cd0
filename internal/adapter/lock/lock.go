// Package lock serialises long-running integration jobs (rebuild, repair)
// so that overlapping invocations cannot interleave their writes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
)

const keyPrefix = "kotoba:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired-and-reacquired lock is never freed by its previous owner.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a lock shared by every process connected to the same Redis.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis creates a Redis-backed lock. Locks expire after ttl even if never released.
func NewRedis(rdb *goredis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Connect creates a Redis client and pings it, failing fast when unreachable.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Acquire takes the named lock or returns domain.ErrJobLocked if another holder has it.
func (l *Redis) Acquire(ctx context.Context, name string) (release func(ctx context.Context) error, err error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", name, domain.ErrJobLocked)
	}

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("release lock %s: %w", name, err)
		}
		return nil
	}, nil
}

// Ping reports whether Redis is reachable.
func (l *Redis) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Local is an in-process lock used when no Redis is configured.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an in-process lock.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// Acquire takes the named lock or returns domain.ErrJobLocked if it is held.
func (l *Local) Acquire(_ context.Context, name string) (release func(ctx context.Context) error, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return nil, fmt.Errorf("lock %s: %w", name, domain.ErrJobLocked)
	}
	l.held[name] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
