package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Persisted key layout, one namespace per browsing session.
const (
	keyBase       = "reservation.base"
	keyExtras     = "reservation.extras"
	keyConductor  = "reservation.conductor"
	keyStep       = "reservation.step"
	keyTimerStart = "reservation.timerStart"
	keyUserWarned = "reservation.userWarned"
	// keyLegacyBlob is the unsegmented shape older clients persisted.
	keyLegacyBlob = "reservationData"
)

// SessionStore is a pure key/value surface scoped to one browsing session.
// No validation, no business semantics.
type SessionStore interface {
	Save(ctx context.Context, namespace, key string, value []byte) error
	Load(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Remove(ctx context.Context, namespace, key string) error
	Clear(ctx context.Context, namespace string) error
}

// RedisSessionStore keeps each namespace as one Redis hash. A backstop expiry
// well past the session TTL guards against namespaces orphaned by a crashed
// client; the timer controller remains the authority on session lifetime.
type RedisSessionStore struct {
	client   *redis.Client
	backstop time.Duration
}

func NewRedisSessionStore(client *redis.Client, backstop time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, backstop: backstop}
}

func (s *RedisSessionStore) hashKey(namespace string) string {
	return "resv:" + namespace
}

func (s *RedisSessionStore) Save(ctx context.Context, namespace, key string, value []byte) error {
	hk := s.hashKey(namespace)
	if err := s.client.HSet(ctx, hk, key, value).Err(); err != nil {
		return fmt.Errorf("failed to save session key %s: %w", key, err)
	}
	if s.backstop > 0 {
		if err := s.client.Expire(ctx, hk, s.backstop).Err(); err != nil {
			return fmt.Errorf("failed to refresh session backstop expiry: %w", err)
		}
	}
	return nil
}

func (s *RedisSessionStore) Load(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	val, err := s.client.HGet(ctx, s.hashKey(namespace), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session key %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisSessionStore) Remove(ctx context.Context, namespace, key string) error {
	if err := s.client.HDel(ctx, s.hashKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("failed to remove session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, namespace string) error {
	if err := s.client.Del(ctx, s.hashKey(namespace)).Err(); err != nil {
		return fmt.Errorf("failed to clear session namespace: %w", err)
	}
	return nil
}

// MemorySessionStore is the in-process implementation used by tests and by
// environments without Redis.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]map[string][]byte)}
}

func (s *MemorySessionStore) Save(_ context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.data[namespace] = ns
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	ns[key] = cp
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[namespace][key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (s *MemorySessionStore) Remove(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[namespace], key)
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace)
	return nil
}
