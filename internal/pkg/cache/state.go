package cache

import (
	"context"
	"sync"
	"time"
)

// StateStore holds one-time OAuth anti-forgery tokens. A token is
// written at redirect time and consumed exactly once on callback;
// a second check of the same token fails.
type StateStore interface {
	Put(ctx context.Context, token string) error
	// Consume checks the token and deletes it. Returns false for an
	// unknown, expired, or already-used token.
	Consume(ctx context.Context, token string) (bool, error)
}

const stateKeyPrefix = "oauth_state:"

// RedisStateStore keeps state tokens in Redis with a TTL, so the check
// survives process restarts and multiple instances.
type RedisStateStore struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(cache *RedisCache, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{cache: cache, ttl: ttl}
}

func (s *RedisStateStore) Put(ctx context.Context, token string) error {
	return s.cache.Client().Set(ctx, stateKeyPrefix+token, "1", s.ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, token string) (bool, error) {
	n, err := s.cache.Client().Del(ctx, stateKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryStateStore is the fallback when Redis is not configured.
type MemoryStateStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
	ttl    time.Duration
}

// NewMemoryStateStore creates an in-process state store.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

func (s *MemoryStateStore) Put(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// drop expired entries opportunistically
	now := time.Now()
	for t, exp := range s.tokens {
		if now.After(exp) {
			delete(s.tokens, t)
		}
	}

	s.tokens[token] = now.Add(s.ttl)
	return nil
}

func (s *MemoryStateStore) Consume(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.tokens[token]
	if !ok {
		return false, nil
	}
	delete(s.tokens, token)
	if time.Now().After(exp) {
		return false, nil
	}
	return true, nil
}
