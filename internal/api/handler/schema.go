package handler

import "github.com/aidattendance/portal/internal/core/domain"

// ── Requests ──────────────────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// FlowID continues an existing flow; empty starts a new one.
	FlowID string `json:"flow_id,omitempty"`
}

type otpRequest struct {
	FlowID string `json:"flow_id" validate:"required"`
	Code   string `json:"code"    validate:"required"`
}

type flowRequest struct {
	FlowID string `json:"flow_id" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"            validate:"required"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type profileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Phone     string `json:"phone"      validate:"max=32"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type loginResponse struct {
	Result       string `json:"result"`
	FlowID       string `json:"flow_id"`
	OtpExpiresIn int    `json:"otp_expires_in"`
}

type otpResponse struct {
	Result   string           `json:"result"`
	Token    string           `json:"token"`
	Identity *domain.Identity `json:"identity"`
}

type resendResponse struct {
	OtpExpiresIn int `json:"otp_expires_in"`
}

type flowStatusResponse struct {
	FlowID       string       `json:"flow_id"`
	Stage        domain.Stage `json:"stage"`
	OtpRemaining int          `json:"otp_remaining"`
	EnteredCode  string       `json:"entered_code"`
	CanConfirm   bool         `json:"can_confirm"`
}

type navResponse struct {
	Section domain.Section   `json:"section,omitempty"`
	Home    string           `json:"home,omitempty"`
	Items   []domain.NavItem `json:"items"`
}

type routeCheckResponse struct {
	Path     string          `json:"path"`
	Decision domain.Decision `json:"decision"`
	Redirect string          `json:"redirect,omitempty"`
}

type pageResponse struct {
	Path     string           `json:"path"`
	Route    string           `json:"route"`
	Section  domain.Section   `json:"section"`
	Title    string           `json:"title,omitempty"`
	Identity *domain.Identity `json:"identity"`
}

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
