package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// ForgotPassword sends a reset link. The response does not reveal whether the
// address has an account.
//
// @Summary      Request a password reset
// @Tags         account
// @Accept       json
// @Param        body  body  forgotPasswordRequest  true  "Email"
// @Success      202
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/forgot-password [post]
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.accounts.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

// ResetPassword sets a new password with a reset token.
//
// @Summary      Reset the password
// @Tags         account
// @Accept       json
// @Param        body  body  resetPasswordRequest  true  "Token and new password"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/reset-password [post]
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.accounts.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change the password
// @Tags         account
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /account/password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	_, id, err := ctxFlow(c)
	if err != nil {
		return err
	}
	err = h.accounts.ChangePassword(c.Request().Context(), id.Email, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the caller's identity.
//
// @Summary      My account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  ErrorResponse
// @Router       /account/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	_, id, err := ctxFlow(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, id)
}

// UpdateProfile edits the caller's name and phone. Email and role are fixed.
//
// @Summary      Update my account
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /account/profile [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	flow, _, err := ctxFlow(c)
	if err != nil {
		return err
	}

	updated, err := flow.UpdateProfile(c.Request().Context(), domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
