// internal/services/idempotency.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyRecord is what a checkout key resolves to. OrderID is empty
// while the first request is still running.
type IdempotencyRecord struct {
	Fingerprint string `json:"fingerprint"`
	OrderID     string `json:"order_id,omitempty"`
}

// IdempotencyStore reserves checkout keys. Reserve returns reserved=true
// to the first caller; later callers get the stored record instead.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*IdempotencyRecord, bool, error)
	Complete(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "idempotency:"}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*IdempotencyRecord, bool, error) {
	body, err := json.Marshal(IdempotencyRecord{Fingerprint: fingerprint})
	if err != nil {
		return nil, false, err
	}

	ok, err := s.client.SetNX(ctx, s.prefix+key, body, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls, try once more
		ok, err = s.client.SetNX(ctx, s.prefix+key, body, ttl).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return nil, true, nil
		}
		raw, err = s.client.Get(ctx, s.prefix+key).Bytes()
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var record IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return &record, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, body, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// MemoryIdempotencyStore backs single-instance and test setups.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	record    IdempotencyRecord
	expiresAt time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryIdempotencyStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok && time.Now().Before(existing.expiresAt) {
		record := existing.record
		return &record, false, nil
	}
	s.records[key] = memoryRecord{
		record:    IdempotencyRecord{Fingerprint: fingerprint},
		expiresAt: time.Now().Add(ttl),
	}
	return nil, true, nil
}

func (s *MemoryIdempotencyStore) Complete(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = memoryRecord{record: record, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
