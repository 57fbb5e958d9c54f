package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

type resetEntry struct {
	email   string
	expires time.Time
}

// ResetTokens keeps password-reset tokens in a map.
type ResetTokens struct {
	mu      sync.Mutex
	entries map[string]resetEntry
	now     func() time.Time
}

var _ ports.ResetTokenStore = (*ResetTokens)(nil)

func NewResetTokens() *ResetTokens {
	return &ResetTokens{entries: make(map[string]resetEntry), now: time.Now}
}

func (s *ResetTokens) Save(_ context.Context, token, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[token] = resetEntry{email: email, expires: now.Add(ttl)}
	return nil
}

func (s *ResetTokens) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(s.entries, token)
	if s.now().After(e.expires) {
		return "", domain.ErrResetTokenInvalid
	}
	return e.email, nil
}
