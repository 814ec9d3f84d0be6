// internal/domain/cart/session_store.go
package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront/internal/infrastructure/session"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

const sessionCartKey = "cart"

// SessionStore holds anonymous carts as a Redis hash per session:
// field = product id, value = quantity. Each mutation is a single hash
// command plus a TTL refresh in one MULTI/EXEC.
type SessionStore struct {
	sessions *session.Store
}

// NewSessionStore creates a session cart store
func NewSessionStore(sessions *session.Store) *SessionStore {
	return &SessionStore{sessions: sessions}
}

func (s *SessionStore) key(sessionID string) string {
	return s.sessions.Key(sessionID, sessionCartKey)
}

// Get returns product id to quantity. Malformed or non-positive entries
// are dropped.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (map[string]int, error) {
	raw, err := s.sessions.Client().HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session cart read: %w", err)
	}

	items := make(map[string]int, len(raw))
	for productID, value := range raw {
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		items[productID] = qty
	}
	return items, nil
}

// Add increments the product's quantity, inserting it when absent, and
// returns the new quantity.
func (s *SessionStore) Add(ctx context.Context, sessionID string, productID uint, quantity int) (int, error) {
	if quantity < 1 {
		return 0, pkgerrors.Validation("Quantity must be at least 1")
	}

	key := s.key(sessionID)
	var incr *redis.IntCmd
	_, err := s.sessions.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, field(productID), int64(quantity))
		pipe.Expire(ctx, key, s.sessions.TTL())
		s.sessions.Track(ctx, pipe, sessionID, sessionCartKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session cart add: %w", err)
	}
	return int(incr.Val()), nil
}

// Remove deletes the product's entry. Absent entries are a no-op.
func (s *SessionStore) Remove(ctx context.Context, sessionID string, productID uint) error {
	key := s.key(sessionID)
	_, err := s.sessions.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, field(productID))
		pipe.Expire(ctx, key, s.sessions.TTL())
		return nil
	})
	if err != nil {
		return fmt.Errorf("session cart remove: %w", err)
	}
	return nil
}

// SetQuantity stores quantity when positive and removes the entry otherwise.
func (s *SessionStore) SetQuantity(ctx context.Context, sessionID string, productID uint, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}

	key := s.key(sessionID)
	_, err := s.sessions.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field(productID), quantity)
		pipe.Expire(ctx, key, s.sessions.TTL())
		s.sessions.Track(ctx, pipe, sessionID, sessionCartKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session cart update: %w", err)
	}
	return nil
}

// Clear empties the session cart.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.Client().Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session cart clear: %w", err)
	}
	return nil
}

func field(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}
