package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aidattendance/portal/internal/core/ports"
)

const sessionPrefix = "session:"

// SessionStore keeps one durable session slot per flow.
// Key format: session:<flow_id>
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore wraps client. A zero ttl keeps slots until logout.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return raw, nil
}

func (s *SessionStore) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, sessionPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
