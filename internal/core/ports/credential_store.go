package ports

import (
	"context"

	"github.com/aidattendance/portal/internal/core/domain"
)

// CredentialStore checks and updates login passwords.
type CredentialStore interface {
	// Verify returns domain.ErrInvalidCredentials when the pair is rejected.
	Verify(ctx context.Context, email, password string) error
	SetPassword(ctx context.Context, email, password string) error
}

// IdentityResolver maps a confirmed login to a role-bearing identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, email string) (domain.Identity, error)
}

// ProfileStore persists user-editable profile fields. Optional.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, email string, update domain.ProfileUpdate) error
}
