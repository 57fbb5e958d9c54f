package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const ResetTokenTTL = 30 * time.Minute

// AccountService handles password recovery and password changes.
type AccountService struct {
	creds    ports.CredentialStore
	tokens   ports.ResetTokenStore
	notifier ports.Notifier
	resetURL string
	log      zerolog.Logger
}

var _ ports.AccountService = (*AccountService)(nil)

// NewAccountService wires the account operations. resetURL is the page the
// reset link points at; the token is appended as a query parameter.
func NewAccountService(creds ports.CredentialStore, tokens ports.ResetTokenStore, notifier ports.Notifier, resetURL string, log zerolog.Logger) *AccountService {
	return &AccountService{creds: creds, tokens: tokens, notifier: notifier, resetURL: resetURL, log: log}
}

// ForgotPassword issues a reset token and mails it. It does not reveal
// whether the address belongs to an account.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrInvalidCredentials
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, token, email, ResetTokenTTL); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	n := domain.Notification{
		Channel:   domain.ChannelEmail,
		Recipient: email,
		Subject:   "Reset your password",
		Body:      fmt.Sprintf("Use this link to reset your password: %s?token=%s\nThe link expires in 30 minutes.", s.resetURL, token),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.log.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// ResetPassword sets a new password using a token from ForgotPassword.
// The policy is checked before the token is consumed.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if err := domain.CheckPasswordPolicy(password); err != nil {
		return err
	}

	email, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return err
	}
	if err := s.creds.SetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	s.log.Info().Str("email", email).Msg("password reset completed")
	return nil
}

// ChangePassword replaces the password of a signed-in user.
func (s *AccountService) ChangePassword(ctx context.Context, email, current, next, confirm string) error {
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	if err := domain.CheckPasswordPolicy(next); err != nil {
		return err
	}

	if err := s.creds.Verify(ctx, email, current); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("verify current password: %w", err)
	}
	if err := s.creds.SetPassword(ctx, email, next); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	s.log.Info().Str("email", email).Msg("password changed")
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
