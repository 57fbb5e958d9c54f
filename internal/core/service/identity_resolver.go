package service

import (
	"context"

	"github.com/aidattendance/portal/internal/core/domain"
)

// knownIdentities is the fixed lookup table used until a directory backend
// supplies verified profiles.
var knownIdentities = map[string]domain.Identity{
	"sandeep@iotasol.com": {
		ID:        "1",
		FirstName: "Sandeep",
		LastName:  "Admin",
		Role:      domain.RoleAdmin,
		Phone:     "(555) 123-4567",
	},
	"professional2@mailinator.com": {
		ID:           "2",
		FirstName:    "Professional",
		LastName:     "User",
		Role:         domain.RoleRepresentative,
		Phone:        "(555) 234-5678",
		CompanyName:  "VA Legal Services",
		IsSuperAdmin: true,
	},
	"user1@mailinator.com": {
		ID:        "3",
		FirstName: "John",
		LastName:  "Doe",
		Role:      domain.RoleUser,
		Phone:     "(555) 345-6789",
	},
}

var defaultIdentity = domain.Identity{
	ID:        "4",
	FirstName: "Test",
	LastName:  "User",
	Role:      domain.RoleUser,
	Phone:     "(555) 456-7890",
}

// ResolveIdentity maps an email to an identity by exact match, falling back to
// a client-class placeholder profile.
func ResolveIdentity(email string) domain.Identity {
	id, ok := knownIdentities[email]
	if !ok {
		id = defaultIdentity
	}
	id.Email = email
	return id
}

// StaticResolver adapts ResolveIdentity to ports.IdentityResolver.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, email string) (domain.Identity, error) {
	return ResolveIdentity(email), nil
}
