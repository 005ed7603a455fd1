package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

// Data is the server-side state behind a session cookie.
type Data struct {
	BasketID uint `json:"basket_id,omitempty"`
}

type Store interface {
	Get(ctx context.Context, token string) (*Data, error)
	Save(ctx context.Context, token string, data *Data) error
	Delete(ctx context.Context, token string) error
}

func NewToken() string {
	return uuid.New().String()
}

// RedisStore keeps session data as JSON with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(token string) string {
	return "session:" + token
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Data, error) {
	raw, err := s.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &data, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(token), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, key(token)).Err()
}

type memoryEntry struct {
	data    Data
	expires time.Time
}

// MemoryStore is the single-process fallback used without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(e.expires) {
		delete(s.entries, token)
		return nil, ErrNotFound
	}
	data := e.data
	return &data, nil
}

func (s *MemoryStore) Save(_ context.Context, token string, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{data: *data, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
