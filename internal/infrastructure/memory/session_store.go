// Package memory holds in-process backends used in development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/aidattendance/portal/internal/core/ports"
)

// SessionStore keeps session slots in a map. Slots do not survive a restart.
type SessionStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{slots: make(map[string][]byte)}
}

func (s *SessionStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *SessionStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
