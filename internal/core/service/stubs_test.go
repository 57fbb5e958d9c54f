package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aidattendance/portal/internal/core/domain"
)

type stubStore struct {
	mu        sync.Mutex
	slots     map[string][]byte
	loadErr   error
	saveErr   error
	deleteErr error
	deletes   int
}

func newStubStore() *stubStore {
	return &stubStore{slots: make(map[string][]byte)}
}

func (s *stubStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	v, ok := s.slots[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *stubStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.slots[key] = append([]byte(nil), value...)
	return nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.slots, key)
	return nil
}

func (s *stubStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[key]
	return ok
}

type stubCreds struct {
	passwords map[string]string
	err       error
}

func newStubCreds() *stubCreds {
	return &stubCreds{passwords: make(map[string]string)}
}

// Verify accepts any pair unless a password was set for the email.
func (c *stubCreds) Verify(_ context.Context, email, password string) error {
	if c.err != nil {
		return c.err
	}
	if want, ok := c.passwords[email]; ok && want != password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (c *stubCreds) SetPassword(_ context.Context, email, password string) error {
	c.passwords[email] = password
	return nil
}

type stubOtp struct {
	issued    []string
	discarded int
	issueErr  error
	verifyErr error
}

func (o *stubOtp) Issue(_ context.Context, _, recipient string) error {
	if o.issueErr != nil {
		return o.issueErr
	}
	o.issued = append(o.issued, recipient)
	return nil
}

func (o *stubOtp) Verify(_ context.Context, _, _ string) error {
	return o.verifyErr
}

func (o *stubOtp) Discard(_ context.Context, _ string) error {
	o.discarded++
	return nil
}

type stubProfiles struct {
	updates map[string]domain.ProfileUpdate
}

func (p *stubProfiles) UpdateProfile(_ context.Context, email string, u domain.ProfileUpdate) error {
	if p.updates == nil {
		p.updates = make(map[string]domain.ProfileUpdate)
	}
	p.updates[email] = u
	return nil
}

type stubNotifier struct {
	sent []domain.Notification
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, msg domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type stubResetTokens struct {
	tokens map[string]string
}

func (s *stubResetTokens) Save(_ context.Context, token, email string, _ time.Duration) error {
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[token] = email
	return nil
}

func (s *stubResetTokens) Consume(_ context.Context, token string) (string, error) {
	email, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(s.tokens, token)
	return email, nil
}

var errBackend = errors.New("backend down")
