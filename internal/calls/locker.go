package calls

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aira-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes transitions on a single conversation.
// Lock blocks until the key is free or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. Entries are reference counted and
// dropped once nobody holds or waits for them, so the map does not grow with
// the number of conversations ever seen.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: map[string]*keyedEntry{}}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.release(key, e)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

const redisLockPrefix = "aira:call-lock:"

// RedisLocker is a Locker shared by every API instance pointing at the same Redis.
//
// Safety properties:
// - Acquire is SET NX PX with a random owner token.
// - Release deletes the key only if the token still matches (Lua).
// - TTL bounds how long a crashed instance can block a conversation.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
	log  *slog.Logger
}

type RedisLockerOptions struct {
	TTL          time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewRedisLocker(rdb *redis.Client, opts RedisLockerOptions) *RedisLocker {
	l := &RedisLocker{rdb: rdb, ttl: opts.TTL, wait: opts.WaitTimeout, poll: opts.PollInterval, log: opts.Logger}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	if l.wait <= 0 {
		l.wait = 5 * time.Second
	}
	if l.poll <= 0 {
		l.poll = 25 * time.Millisecond
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lockKey := redisLockPrefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := utils.TryAcquireLock(ctx, l.rdb, lockKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire conversation lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: conversation %q is busy", ErrConflict, key)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer relCancel()
			if err := utils.ReleaseLock(relCtx, l.rdb, lockKey, token); err != nil {
				l.log.Warn("conversation lock release failed", "conversation_id", key, "err", err)
			}
		})
	}, nil
}
