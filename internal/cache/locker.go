package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ReleaseFunc снимает ранее взятую блокировку.
type ReleaseFunc func(ctx context.Context) error

// Locker выдаёт аренду (lease) по имени задачи. Пока аренда жива, повторный
// Acquire с тем же именем возвращает ok=false.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, bool, error)
}

// Удаляем ключ, только если он всё ещё наш
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client, prefix: "lock:"}
}

func (l *redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, bool, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release lock %s: %w", name, err)
		}
		return nil
	}
	return release, true, nil
}

type memoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
}

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// NewMemoryLocker - блокировки внутри одного процесса (CACHE_DRIVER=memory, тесты).
func NewMemoryLocker() Locker {
	return &memoryLocker{leases: make(map[string]memoryLease), now: time.Now}
}

func (l *memoryLocker) Acquire(_ context.Context, name string, ttl time.Duration) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, held := l.leases[name]; held && now.Before(lease.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.leases[name] = memoryLease{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, held := l.leases[name]; held && lease.token == token {
			delete(l.leases, name)
		}
		return nil
	}
	return release, true, nil
}
