package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight is returned by Begin while the first request with the same key
// is still running.
var ErrInFlight = errors.New("idempotency: request in flight")

// Record is a completed response kept for replay.
type Record struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Store reserves keys and keeps the response of the request that reserved them.
type Store interface {
	// Begin reserves key. It returns the stored record when key already
	// completed, ErrInFlight when it is reserved but not completed, and
	// (nil, nil) when the caller now owns key.
	Begin(ctx context.Context, key string, ttl time.Duration) (*Record, error)
	Save(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const pendingMarker = "pending"

type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + k }

func (s *RedisStore) Begin(ctx context.Context, key string, ttl time.Duration) (*Record, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), pendingMarker, ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; try once more
		return s.Begin(ctx, key, ttl)
	}
	if err != nil {
		return nil, err
	}
	if raw == pendingMarker {
		return nil, ErrInFlight
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), raw, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// MemoryStore is the single-process Store used when no redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec       *Record
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Begin(_ context.Context, key string, ttl time.Duration) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.rec == nil {
			return nil, ErrInFlight
		}
		rec := *e.rec
		return &rec, nil
	}
	s.entries[key] = memoryEntry{expiresAt: now.Add(ttl)}
	return nil, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{rec: &rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
