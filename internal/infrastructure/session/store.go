// internal/infrastructure/session/store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront/internal/config"
)

// Store keeps per-session state in Redis under "<prefix>:<id>:<name>".
// Every key of a session shares the same sliding TTL, and the names in use
// are recorded in the "<prefix>:<id>:keys" set so Destroy can find them.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

const indexName = "keys"

// NewStore creates a session store
func NewStore(client *redis.Client, cfg config.SessionConfig) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "session"
	}
	return &Store{client: client, prefix: prefix, ttl: cfg.TTL}
}

// NewID returns a fresh opaque session token.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a token issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) TTL() time.Duration { return s.ttl }

// Key returns the Redis key holding one named value of a session.
func (s *Store) Key(sessionID, name string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sessionID, name)
}

func (s *Store) indexKey(sessionID string) string {
	return s.Key(sessionID, indexName)
}

// Track queues, on pipe, the registration of a named value in the session's
// key index. Every writer of session keys calls it in the same pipeline.
func (s *Store) Track(ctx context.Context, pipe redis.Pipeliner, sessionID, name string) {
	index := s.indexKey(sessionID)
	pipe.SAdd(ctx, index, name)
	pipe.Expire(ctx, index, s.ttl)
}

// GetJSON decodes a named value into dest. It reports false when unset.
func (s *Store) GetJSON(ctx context.Context, sessionID, name string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, s.Key(sessionID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("session decode %s: %w", name, err)
	}
	return true, nil
}

// SetJSON stores a named value and refreshes its TTL.
func (s *Store) SetJSON(ctx context.Context, sessionID, name string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", name, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.Key(sessionID, name), raw, s.ttl)
		s.Track(ctx, pipe, sessionID, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", name, err)
	}
	return nil
}

// Delete removes named values of a session.
func (s *Store) Delete(ctx context.Context, sessionID string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.Key(sessionID, name)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Destroy removes every tracked key of a session and the index itself.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	index := s.indexKey(sessionID)
	names, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("session index: %w", err)
	}

	keys := make([]string, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, s.Key(sessionID, name))
	}
	keys = append(keys, index)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}
