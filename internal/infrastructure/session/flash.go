// internal/infrastructure/session/flash.go
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const flashKey = "flash"

// Flash levels.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// AddFlash queues a message for the session.
func (s *Store) AddFlash(ctx context.Context, sessionID, level, message string) error {
	raw, err := json.Marshal(Flash{Level: level, Message: message})
	if err != nil {
		return err
	}
	key := s.Key(sessionID, flashKey)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		pipe.Expire(ctx, key, s.ttl)
		s.Track(ctx, pipe, sessionID, flashKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("flash add: %w", err)
	}
	return nil
}

// PopFlashes returns and clears the queued messages.
func (s *Store) PopFlashes(ctx context.Context, sessionID string) ([]Flash, error) {
	key := s.Key(sessionID, flashKey)

	var lrange *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}

	flashes := make([]Flash, 0, len(lrange.Val()))
	for _, raw := range lrange.Val() {
		var f Flash
		if json.Unmarshal([]byte(raw), &f) == nil {
			flashes = append(flashes, f)
		}
	}
	return flashes, nil
}
