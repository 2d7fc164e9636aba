package clientstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Keys persisted per storefront client. Cart and favorites survive page loads
// and must be wiped whenever the client signs out.
const (
	KeyCart      = "cart"
	KeyFavorites = "favorites"
)

// Store is a per-client persisted key-value store, the server-side counterpart
// of the browser's local storage.
type Store interface {
	Set(ctx context.Context, clientID, key, value string) error
	Get(ctx context.Context, clientID, key string) (string, error)
	Remove(ctx context.Context, clientID string, keys ...string) error
}

// redisStore keeps one Redis hash per client.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func hashKey(clientID string) string {
	return fmt.Sprintf("clientstore:%s", clientID)
}

func (s *redisStore) Set(ctx context.Context, clientID, key, value string) error {
	return s.client.HSet(ctx, hashKey(clientID), key, value).Err()
}

func (s *redisStore) Get(ctx context.Context, clientID, key string) (string, error) {
	val, err := s.client.HGet(ctx, hashKey(clientID), key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *redisStore) Remove(ctx context.Context, clientID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.HDel(ctx, hashKey(clientID), keys...).Err()
}

// memoryStore is an in-process Store for tests.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

// NewMemoryStore creates an in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]map[string]string)}
}

func (s *memoryStore) Set(ctx context.Context, clientID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[clientID] == nil {
		s.data[clientID] = make(map[string]string)
	}
	s.data[clientID][key] = value
	return nil
}

func (s *memoryStore) Get(ctx context.Context, clientID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[clientID][key], nil
}

func (s *memoryStore) Remove(ctx context.Context, clientID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data[clientID], key)
	}
	return nil
}
