package ports

import (
	"context"
	"time"

	"github.com/aidattendance/portal/internal/core/domain"
)

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// ResetTokenStore keeps password-reset tokens until used or expired.
type ResetTokenStore interface {
	Save(ctx context.Context, token, email string, ttl time.Duration) error
	// Consume returns the email bound to token and deletes it.
	// Unknown or expired tokens yield domain.ErrResetTokenInvalid.
	Consume(ctx context.Context, token string) (string, error)
}
