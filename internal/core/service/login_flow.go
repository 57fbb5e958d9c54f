package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const (
	// DefaultOtpSeconds is the OTP countdown started on every challenge.
	DefaultOtpSeconds = 120
	OtpLength         = 6
)

// FlowConfig tunes the OTP countdown. Zero values select the defaults.
type FlowConfig struct {
	OtpSeconds   int
	TickInterval time.Duration
}

// FlowDeps are the collaborators shared by every login flow.
type FlowDeps struct {
	Credentials ports.CredentialStore
	Resolver    ports.IdentityResolver
	Otp         ports.OtpChallenger
	Store       ports.SessionStore
	Profiles    ports.ProfileStore // optional
	Log         zerolog.Logger
	Config      FlowConfig
}

// LoginFlow is the authentication state machine of one browser session:
// Anonymous → CredentialsSubmitted → OtpPending → Authenticated.
// All mutations are serialized by mu; the countdown goroutine is the only
// other writer and exits as soon as the OTP stage is left.
type LoginFlow struct {
	id   string
	deps FlowDeps

	mu        sync.Mutex
	stage     domain.Stage
	pending   *domain.PendingCredential
	identity  *domain.Identity
	loading   bool
	code      string
	remaining int
	stopTick  chan struct{}

	// lastSeen is read by the registry without taking mu.
	lastSeen atomic.Int64
}

var _ ports.LoginFlow = (*LoginFlow)(nil)

// NewLoginFlow returns an anonymous flow whose session is still loading.
// Call Hydrate to read the durable slot.
func NewLoginFlow(id string, deps FlowDeps) *LoginFlow {
	if deps.Config.OtpSeconds <= 0 {
		deps.Config.OtpSeconds = DefaultOtpSeconds
	}
	if deps.Config.TickInterval <= 0 {
		deps.Config.TickInterval = time.Second
	}
	f := &LoginFlow{
		id:      id,
		deps:    deps,
		stage:   domain.StageAnonymous,
		loading: true,
	}
	f.touch()
	return f
}

func (f *LoginFlow) ID() string { return f.id }

// Hydrate loads the durable session slot once. A malformed slot is deleted
// and the flow stays anonymous; read failures also leave it anonymous.
func (f *LoginFlow) Hydrate(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loading {
		return
	}
	defer func() { f.loading = false }()

	raw, err := f.deps.Store.Load(ctx, f.id)
	if err != nil {
		f.deps.Log.Error().Err(err).Str("flow_id", f.id).Msg("session load failed")
		return
	}
	if raw == nil {
		return
	}

	id, err := decodeIdentity(raw)
	if err != nil {
		f.deps.Log.Warn().Err(err).Str("flow_id", f.id).Msg("discarding stored session")
		if delErr := f.deps.Store.Delete(ctx, f.id); delErr != nil {
			f.deps.Log.Error().Err(delErr).Str("flow_id", f.id).Msg("failed to clear malformed session")
		}
		return
	}

	f.identity = &id
	f.stage = domain.StageAuthenticated
}

// SubmitPassword runs the password step. Accepted credentials always end in
// OtpPending with a NeedsSecondFactor result; the flow never authenticates on
// a password alone. A submission from OtpPending supersedes the prior one.
func (f *LoginFlow) SubmitPassword(ctx context.Context, email, password string) (domain.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if !f.stage.CanTransitionTo(domain.StageCredentialsSubmitted) {
		return domain.LoginResult{}, fmt.Errorf("submit password from %s: %w", f.stage, domain.ErrInvalidTransition)
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Reject(domain.ErrInvalidCredentials), nil
	}

	if err := f.deps.Credentials.Verify(ctx, email, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			f.deps.Log.Info().Str("flow_id", f.id).Str("email", email).Msg("credentials rejected")
			return domain.Reject(domain.ErrInvalidCredentials), nil
		}
		return domain.LoginResult{}, fmt.Errorf("verify credentials: %w", err)
	}

	f.stopCountdownLocked()
	f.stage = domain.StageCredentialsSubmitted
	f.pending = &domain.PendingCredential{Email: email, Password: password}
	f.code = ""

	if err := f.deps.Otp.Issue(ctx, f.id, email); err != nil {
		f.pending = nil
		f.stage = domain.StageAnonymous
		return domain.LoginResult{}, fmt.Errorf("issue otp: %w", err)
	}

	f.stage = domain.StageOtpPending
	f.startCountdownLocked()

	f.deps.Log.Info().Str("flow_id", f.id).Str("email", email).Msg("otp challenge issued")

	return domain.LoginResult{Kind: domain.NeedsSecondFactor, OtpExpiresIn: f.remaining}, nil
}

// ConfirmOtp runs the second step. Non-digits are stripped before the length
// check; a rejected code leaves the flow in OtpPending.
func (f *LoginFlow) ConfirmOtp(ctx context.Context, raw string) (domain.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.stage != domain.StageOtpPending {
		return domain.LoginResult{}, fmt.Errorf("confirm otp from %s: %w", f.stage, domain.ErrInvalidTransition)
	}

	code := SanitizeOtp(raw)
	f.code = code
	if len(code) != OtpLength {
		return domain.Reject(domain.ErrInvalidOtp), nil
	}
	if f.remaining == 0 {
		return domain.Reject(domain.ErrOtpExpired), nil
	}

	if err := f.deps.Otp.Verify(ctx, f.id, code); err != nil {
		if errors.Is(err, domain.ErrInvalidOtp) {
			f.deps.Log.Info().Err(err).Str("flow_id", f.id).Msg("otp rejected")
			return domain.Reject(err), nil
		}
		return domain.LoginResult{}, fmt.Errorf("verify otp: %w", err)
	}

	id, err := f.deps.Resolver.Resolve(ctx, f.pending.Email)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("resolve identity: %w", err)
	}
	payload, err := encodeIdentity(id)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if err := f.deps.Store.Save(ctx, f.id, payload); err != nil {
		return domain.LoginResult{}, fmt.Errorf("persist session: %w", err)
	}
	// The code stays valid until the session is stored, so a failed save can
	// be retried with the same code.
	if err := f.deps.Otp.Discard(ctx, f.id); err != nil {
		f.deps.Log.Warn().Err(err).Str("flow_id", f.id).Msg("failed to discard otp challenge")
	}

	f.stopCountdownLocked()
	f.identity = &id
	f.pending = nil
	f.code = ""
	f.remaining = 0
	f.stage = domain.StageAuthenticated

	f.deps.Log.Info().Str("flow_id", f.id).Str("email", id.Email).Str("role", string(id.Role)).Msg("login completed")

	out := id
	return domain.LoginResult{Kind: domain.Authenticated, Identity: &out}, nil
}

// ResendOtp reissues the challenge, restarts the countdown at its full length
// and clears any entered code.
func (f *LoginFlow) ResendOtp(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.stage != domain.StageOtpPending {
		return 0, fmt.Errorf("resend otp from %s: %w", f.stage, domain.ErrInvalidTransition)
	}
	if err := f.deps.Otp.Issue(ctx, f.id, f.pending.Email); err != nil {
		return f.remaining, fmt.Errorf("reissue otp: %w", err)
	}

	f.code = ""
	f.startCountdownLocked()
	return f.remaining, nil
}

// Abandon returns from the OTP step to password entry.
func (f *LoginFlow) Abandon(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.stage != domain.StageOtpPending {
		return fmt.Errorf("abandon from %s: %w", f.stage, domain.ErrInvalidTransition)
	}
	f.discardPendingLocked(ctx)
	f.stage = domain.StageAnonymous
	return nil
}

// Logout clears every piece of login state from any stage, including the
// durable slot. The in-memory state is cleared even when the slot delete
// fails; the error is returned so the caller can report it.
func (f *LoginFlow) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	f.discardPendingLocked(ctx)
	f.identity = nil
	f.loading = false
	f.stage = domain.StageAnonymous

	if err := f.deps.Store.Delete(ctx, f.id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UpdateProfile edits the names and phone of the signed-in identity.
func (f *LoginFlow) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()

	if f.identity == nil {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	next := update.Apply(*f.identity)
	raw, err := encodeIdentity(next)
	if err != nil {
		return domain.Identity{}, err
	}
	if f.deps.Profiles != nil {
		if err := f.deps.Profiles.UpdateProfile(ctx, next.Email, update); err != nil {
			return domain.Identity{}, fmt.Errorf("update profile: %w", err)
		}
	}
	if err := f.deps.Store.Save(ctx, f.id, raw); err != nil {
		return domain.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	f.identity = &next
	return next, nil
}

// Session returns the observable authentication state.
func (f *LoginFlow) Session() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.NewSession(f.identityCopyLocked(), f.loading)
}

// State returns a snapshot of the whole flow.
func (f *LoginFlow) State() ports.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ports.FlowState{
		Stage:        f.stage,
		OtpRemaining: f.remaining,
		EnteredCode:  f.code,
		Session:      domain.NewSession(f.identityCopyLocked(), f.loading),
	}
}

// LastSeen reports when the flow was last driven by its owner. It does not
// wait for an operation in progress.
func (f *LoginFlow) LastSeen() time.Time {
	return time.Unix(0, f.lastSeen.Load())
}

func (f *LoginFlow) touch() {
	f.lastSeen.Store(time.Now().UnixNano())
}

// Close stops the countdown. The flow must not be used afterwards.
func (f *LoginFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCountdownLocked()
}

// SanitizeOtp drops every non-digit character.
func SanitizeOtp(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (f *LoginFlow) identityCopyLocked() *domain.Identity {
	if f.identity == nil {
		return nil
	}
	id := *f.identity
	return &id
}

func (f *LoginFlow) discardPendingLocked(ctx context.Context) {
	f.stopCountdownLocked()
	if f.pending != nil {
		if err := f.deps.Otp.Discard(ctx, f.id); err != nil {
			f.deps.Log.Warn().Err(err).Str("flow_id", f.id).Msg("failed to discard otp challenge")
		}
	}
	f.pending = nil
	f.code = ""
	f.remaining = 0
}

func (f *LoginFlow) startCountdownLocked() {
	f.stopCountdownLocked()
	f.remaining = f.deps.Config.OtpSeconds
	stop := make(chan struct{})
	f.stopTick = stop
	go f.countdown(stop)
}

func (f *LoginFlow) stopCountdownLocked() {
	if f.stopTick != nil {
		close(f.stopTick)
		f.stopTick = nil
	}
}

func (f *LoginFlow) countdown(stop chan struct{}) {
	ticker := time.NewTicker(f.deps.Config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.stopTick != stop {
				f.mu.Unlock()
				return
			}
			if f.remaining > 0 {
				f.remaining--
			}
			expired := f.remaining == 0
			f.mu.Unlock()

			if expired {
				f.deps.Log.Debug().Str("flow_id", f.id).Msg("otp countdown expired")
				return
			}
		}
	}
}
