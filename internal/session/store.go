// Package session keeps one view controller per visitor. Visitors are
// identified by a signed cookie; their view state is persisted to a Store
// so a restart or a second replica can pick the page up where it was.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/salary-service/internal/view"
)

// ErrNotFound is returned when a session has no stored state.
var ErrNotFound = errors.New("session not found")

// Store persists view state by session ID.
type Store interface {
	Load(ctx context.Context, id string) (view.State, error)
	Save(ctx context.Context, id string, st view.State) error
	Delete(ctx context.Context, id string) error
}

// ─── In-memory store ─────────────────────────────────────────────────────────

// MemoryStore keeps state in process. Used when no REDIS_URL is configured.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]view.State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]view.State)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (view.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return view.State{}, ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st view.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = st.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

// ─── Redis store ─────────────────────────────────────────────────────────────

const redisKeyPrefix = "salary:session:"

// RedisStore keeps state as JSON under salary:session:<id>, expiring after
// ttl of inactivity.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a RedisStore backed by rdb.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key of session id.
func Key(id string) string { return redisKeyPrefix + id }

func (r *RedisStore) Load(ctx context.Context, id string) (view.State, error) {
	raw, err := r.rdb.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return view.State{}, ErrNotFound
	}
	if err != nil {
		return view.State{}, fmt.Errorf("redis get %s: %w", Key(id), err)
	}
	var st view.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return view.State{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return st, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, st view.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := r.rdb.Set(ctx, Key(id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", Key(id), err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", Key(id), err)
	}
	return nil
}
