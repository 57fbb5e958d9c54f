package domain

import (
	"errors"
	"unicode"
)

const MinPasswordLength = 8

var (
	ErrWeakPassword      = errors.New("password must be at least 8 characters with uppercase, lowercase, and numbers")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
)

// CheckPasswordPolicy enforces the portal password rules.
func CheckPasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
