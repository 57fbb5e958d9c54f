package memory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// Credentials accepts any non-empty email and password until a password is
// set for the email; from then on only that password is accepted.
type Credentials struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	cost   int
}

var _ ports.CredentialStore = (*Credentials)(nil)

func NewCredentials() *Credentials {
	return &Credentials{hashes: make(map[string][]byte), cost: bcrypt.DefaultCost}
}

func (c *Credentials) Verify(_ context.Context, email, password string) error {
	if email == "" || password == "" {
		return domain.ErrInvalidCredentials
	}
	c.mu.RLock()
	hash, ok := c.hashes[email]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (c *Credentials) SetPassword(_ context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[email] = hash
	return nil
}
