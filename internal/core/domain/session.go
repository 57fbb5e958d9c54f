package domain

import (
	"errors"
	"fmt"
)

// Stage is the position of a login flow in its state machine.
type Stage string

const (
	StageAnonymous            Stage = "anonymous"
	StageCredentialsSubmitted Stage = "credentials_submitted"
	StageOtpPending           Stage = "otp_pending"
	StageAuthenticated        Stage = "authenticated"
)

// validTransitions defines the allowed state machine transitions. Logout is
// valid from every stage and is not listed.
var validTransitions = map[Stage][]Stage{
	StageAnonymous:            {StageCredentialsSubmitted},
	StageCredentialsSubmitted: {StageOtpPending, StageAnonymous},
	StageOtpPending:           {StageCredentialsSubmitted, StageAuthenticated, StageAnonymous},
	StageAuthenticated:        {StageAnonymous},
}

var (
	ErrInvalidTransition   = errors.New("invalid login transition")
	ErrInvalidOtp          = errors.New("invalid verification code")
	ErrOtpExpired          = fmt.Errorf("%w: code expired", ErrInvalidOtp)
	ErrOtpAttemptsExceeded = fmt.Errorf("%w: too many attempts", ErrInvalidOtp)
	ErrMalformedSession    = errors.New("malformed session")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrFlowNotFound        = errors.New("login flow not found")
)

// CanTransitionTo reports whether a transition from s to next is valid.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is the externally observable authentication state.
// IsAuthenticated is true iff Identity is non-nil.
type Session struct {
	Identity        *Identity `json:"identity"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IsLoading       bool      `json:"is_loading"`
}

// NewSession builds a Session that keeps the identity/authenticated invariant.
func NewSession(id *Identity, loading bool) Session {
	return Session{Identity: id, IsAuthenticated: id != nil, IsLoading: loading}
}

// Role returns the session role, or "" when anonymous.
func (s Session) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// PendingCredential holds the password-step input until the OTP step ends.
// It is never persisted.
type PendingCredential struct {
	Email    string
	Password string
}

// ResultKind tags the outcome of a login step.
type ResultKind string

const (
	NeedsSecondFactor ResultKind = "needs_second_factor"
	Authenticated     ResultKind = "authenticated"
	Rejected          ResultKind = "rejected"
)

// LoginResult is the tagged outcome of SubmitPassword and ConfirmOtp.
// Reason is set only for Rejected, Identity only for Authenticated.
type LoginResult struct {
	Kind         ResultKind
	Identity     *Identity
	Reason       error
	OtpExpiresIn int
}

// Err returns the rejection reason, or nil for the other kinds.
func (r LoginResult) Err() error {
	if r.Kind != Rejected {
		return nil
	}
	return r.Reason
}

// Reject builds a Rejected result.
func Reject(reason error) LoginResult {
	return LoginResult{Kind: Rejected, Reason: reason}
}
