package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/api/metrics"
	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const (
	resultOtpRequired   = "otp_required"
	resultAuthenticated = "authenticated"
)

type AuthHandler struct {
	flows  ports.FlowRegistry
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthHandler(flows ports.FlowRegistry, tokens ports.TokenService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{flows: flows, tokens: tokens, log: log}
}

// flowFor continues the flow named by id, or starts a new one when id is
// empty or no longer live.
func (h *AuthHandler) flowFor(ctx context.Context, id string) (ports.LoginFlow, bool, error) {
	if id != "" {
		flow, err := h.flows.Lookup(id)
		if err == nil {
			return flow, false, nil
		}
		if !errors.Is(err, domain.ErrFlowNotFound) {
			return nil, false, err
		}
	}
	flow, err := h.flows.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return flow, true, nil
}

// Login runs the password step. Accepted credentials always require a
// verification code.
//
// @Summary      Submit email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      202   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	flow, created, err := h.flowFor(ctx, req.FlowID)
	if err != nil {
		return err
	}

	res, err := flow.SubmitPassword(ctx, req.Email, req.Password)
	if err == nil && res.Kind == domain.Rejected {
		err = res.Reason
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
	} else if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
	}
	if err != nil {
		if created {
			h.flows.Release(flow.ID())
		}
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(resultOtpRequired).Inc()
	return c.JSON(http.StatusAccepted, loginResponse{
		Result:       resultOtpRequired,
		FlowID:       flow.ID(),
		OtpExpiresIn: res.OtpExpiresIn,
	})
}

// ConfirmOtp completes the login with the verification code and returns the
// bearer token.
//
// @Summary      Confirm the verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpRequest  true  "Flow id and code"
// @Success      200   {object}  otpResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/otp [post]
func (h *AuthHandler) ConfirmOtp(c echo.Context) error {
	var req otpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	flow, err := h.flows.Lookup(req.FlowID)
	if err != nil {
		return err
	}

	res, err := flow.ConfirmOtp(c.Request().Context(), req.Code)
	if err != nil {
		metrics.OtpVerificationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if res.Kind == domain.Rejected {
		metrics.OtpVerificationsTotal.WithLabelValues(otpRejectionLabel(res.Reason)).Inc()
		return res.Reason
	}

	token, err := h.tokens.Issue(flow.ID(), *res.Identity)
	if err != nil {
		return err
	}

	metrics.OtpVerificationsTotal.WithLabelValues(resultAuthenticated).Inc()
	return c.JSON(http.StatusOK, otpResponse{
		Result:   resultAuthenticated,
		Token:    token,
		Identity: res.Identity,
	})
}

func otpRejectionLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrOtpExpired):
		return "expired"
	case errors.Is(err, domain.ErrOtpAttemptsExceeded):
		return "attempts_exceeded"
	default:
		return "invalid"
	}
}

// ResendOtp reissues the verification code and restarts the countdown.
//
// @Summary      Resend the verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      flowRequest  true  "Flow id"
// @Success      200   {object}  resendResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/otp/resend [post]
func (h *AuthHandler) ResendOtp(c echo.Context) error {
	var req flowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	flow, err := h.flows.Lookup(req.FlowID)
	if err != nil {
		return err
	}
	remaining, err := flow.ResendOtp(c.Request().Context())
	if err != nil {
		return err
	}

	metrics.OtpResendsTotal.Inc()
	return c.JSON(http.StatusOK, resendResponse{OtpExpiresIn: remaining})
}

// AbandonOtp leaves the code step and discards the pending login.
//
// @Summary      Go back to password entry
// @Tags         auth
// @Accept       json
// @Param        body  body  flowRequest  true  "Flow id"
// @Success      204
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/otp/abandon [post]
func (h *AuthHandler) AbandonOtp(c echo.Context) error {
	var req flowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	flow, err := h.flows.Lookup(req.FlowID)
	if err != nil {
		return err
	}
	if err := flow.Abandon(c.Request().Context()); err != nil {
		return err
	}
	h.flows.Release(flow.ID())
	return c.NoContent(http.StatusNoContent)
}

// OtpStatus reports the countdown of a pending login.
//
// @Summary      Login flow status
// @Tags         auth
// @Produce      json
// @Param        flow_id  query     string  true  "Flow id"
// @Success      200      {object}  flowStatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /auth/otp/status [get]
func (h *AuthHandler) OtpStatus(c echo.Context) error {
	id := c.QueryParam("flow_id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "flow_id is required")
	}
	flow, err := h.flows.Lookup(id)
	if err != nil {
		return err
	}

	st := flow.State()
	return c.JSON(http.StatusOK, flowStatusResponse{
		FlowID:       flow.ID(),
		Stage:        st.Stage,
		OtpRemaining: st.OtpRemaining,
		EnteredCode:  st.EnteredCode,
		CanConfirm:   st.Stage == domain.StageOtpPending && st.OtpRemaining > 0,
	})
}

// Logout ends the caller's session and revokes its token.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	flow, id, err := ctxFlow(c)
	if err != nil {
		return err
	}

	err = flow.Logout(c.Request().Context())
	h.flows.Release(flow.ID())
	if err != nil {
		return err
	}

	metrics.LogoutsTotal.Inc()
	h.log.Info().Str("flow_id", flow.ID()).Str("email", id.Email).Msg("logged out")
	return c.NoContent(http.StatusNoContent)
}

// Session returns the caller's authentication state.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Session
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.SessionFrom(c))
}
