// Package cache stores baseline simulation results between requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
)

var ErrMiss = errors.New("baseline not found in cache")

// Store keeps simulation results keyed by a caller-chosen fingerprint
type Store interface {
	Get(ctx context.Context, key string) (*simulation.Result, error)
	Set(ctx context.Context, key string, result *simulation.Result, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	result  *simulation.Result
	expires time.Time
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*simulation.Result, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return entry.result, nil
}

// Set stores result; a zero ttl never expires
func (s *MemoryStore) Set(_ context.Context, key string, result *simulation.Result, ttl time.Duration) error {
	entry := memoryEntry{result: result}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// RedisStore is a Store shared between server instances
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("baseline:%s", key)
}

func (s *RedisStore) Get(ctx context.Context, key string) (*simulation.Result, error) {
	fullKey := redisKey(key)
	data, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get baseline from cache: %w", err)
	}

	var result simulation.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal baseline: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key": fullKey,
		"run_id":    result.RunID,
	}).Debug("Retrieved baseline from cache")
	return &result, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, result *simulation.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	fullKey := redisKey(key)
	if err := s.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set baseline in cache: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": ttl,
		"run_id":     result.RunID,
	}).Debug("Cached baseline")
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete baseline from cache: %w", err)
	}
	return nil
}

// Ping checks the connection to Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
