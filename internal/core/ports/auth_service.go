package ports

import (
	"context"
	"time"

	"github.com/aidattendance/portal/internal/core/domain"
)

// FlowState is a point-in-time view of a login flow.
type FlowState struct {
	Stage        domain.Stage
	OtpRemaining int
	EnteredCode  string
	Session      domain.Session
}

// LoginFlow is the per browser-session authentication state machine.
type LoginFlow interface {
	ID() string
	SubmitPassword(ctx context.Context, email, password string) (domain.LoginResult, error)
	ConfirmOtp(ctx context.Context, code string) (domain.LoginResult, error)
	ResendOtp(ctx context.Context) (int, error)
	Abandon(ctx context.Context) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (domain.Identity, error)
	Session() domain.Session
	State() FlowState
}

// FlowRegistry owns the live login flows keyed by flow id.
type FlowRegistry interface {
	Create(ctx context.Context) (LoginFlow, error)
	// Lookup returns a live flow or domain.ErrFlowNotFound.
	Lookup(id string) (LoginFlow, error)
	// Restore returns the live flow for id, rebuilding it from the durable
	// session slot when it is not in memory.
	Restore(ctx context.Context, id string) LoginFlow
	Release(id string)
}

// Claims are the bearer-token claims of an authenticated flow.
type Claims struct {
	FlowID    string
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenService issues and parses bearer tokens.
type TokenService interface {
	Issue(flowID string, id domain.Identity) (string, error)
	Parse(token string) (Claims, error)
}

// AccountService covers password recovery and changes.
type AccountService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, email, current, next, confirm string) error
}
