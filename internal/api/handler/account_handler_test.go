package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aidattendance/portal/internal/core/domain"
)

func TestAccountHandler_ForgotPassword(t *testing.T) {
	accounts := &stubAccounts{}
	h := NewAccountHandler(accounts)

	c, rec := newContext(http.MethodPost, "/auth/forgot-password", `{"email":"ana@example.com"}`, nil)
	if err := h.ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(accounts.forgot) != 1 || accounts.forgot[0] != "ana@example.com" {
		t.Fatalf("unexpected calls: %v", accounts.forgot)
	}

	c, _ = newContext(http.MethodPost, "/auth/forgot-password", `{"email":"nope"}`, nil)
	if code := httpCode(h.ForgotPassword(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed email, got %d", code)
	}
}

func TestAccountHandler_ResetPassword(t *testing.T) {
	var gotToken, gotPassword string
	h := NewAccountHandler(&stubAccounts{reset: func(token, password string) error {
		gotToken, gotPassword = token, password
		return nil
	}})

	c, rec := newContext(http.MethodPost, "/auth/reset-password",
		`{"token":"t1","password":"NewPass12","confirm_password":"NewPass12"}`, nil)
	if err := h.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotToken != "t1" || gotPassword != "NewPass12" {
		t.Fatalf("unexpected args %q %q", gotToken, gotPassword)
	}
}

func TestAccountHandler_ResetPassword_ConfirmMismatch(t *testing.T) {
	h := NewAccountHandler(&stubAccounts{reset: func(string, string) error {
		t.Fatal("service must not be called")
		return nil
	}})

	c, _ := newContext(http.MethodPost, "/auth/reset-password",
		`{"token":"t1","password":"NewPass12","confirm_password":"Other123"}`, nil)
	if code := httpCode(h.ResetPassword(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	var gotEmail string
	h := NewAccountHandler(&stubAccounts{change: func(email, current, next, confirm string) error {
		gotEmail = email
		if current != "old" || next != "NewPass12" || confirm != "NewPass12" {
			t.Fatalf("unexpected args %q %q %q", current, next, confirm)
		}
		return nil
	}})

	body := `{"current_password":"old","new_password":"NewPass12","confirm_password":"NewPass12"}`
	c, rec := newContext(http.MethodPost, "/account/password", body, authenticatedFlow("f", domain.RoleUser))
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotEmail != "ana@example.com" {
		t.Fatalf("expected the session email, got %q", gotEmail)
	}

	c, _ = newContext(http.MethodPost, "/account/password", body, nil)
	if err := h.ChangePassword(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAccountHandler_Profile(t *testing.T) {
	h := NewAccountHandler(&stubAccounts{})

	c, rec := newContext(http.MethodGet, "/account/profile", "", authenticatedFlow("f", domain.RoleClient))
	if err := h.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var id domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &id); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if id.Email != "ana@example.com" || id.Role != domain.RoleClient {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	flow := authenticatedFlow("f", domain.RoleUser)
	flow.update = func(u domain.ProfileUpdate) (domain.Identity, error) {
		id := *identity(domain.RoleUser)
		id.FirstName, id.LastName, id.Phone = u.FirstName, u.LastName, u.Phone
		return id, nil
	}
	h := NewAccountHandler(&stubAccounts{})

	c, rec := newContext(http.MethodPut, "/account/profile", `{"first_name":"Ana","last_name":"Ruiz","phone":"+15550100"}`, flow)
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var id domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &id); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if id.LastName != "Ruiz" || id.Phone != "+15550100" || id.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}

	c, _ = newContext(http.MethodPut, "/account/profile", `{"first_name":"","last_name":"Ruiz"}`, flow)
	if code := httpCode(h.UpdateProfile(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a first name, got %d", code)
	}
}
