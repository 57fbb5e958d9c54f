package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aidattendance/portal/internal/api/metrics"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/service"
)

// retryAfterSeconds is sent with Pending decisions.
const retryAfterSeconds = 1

// GuardResponse is the body returned when a route is not rendered.
type GuardResponse struct {
	Decision domain.Decision `json:"decision"`
	Redirect string          `json:"redirect,omitempty"`
}

// Guard enforces rule on the wrapped route using the session set by
// Authenticate.
func Guard(rule domain.RouteAccessRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := SessionFrom(c)
			d := service.GuardRoute(s, rule)
			metrics.GuardDecisionsTotal.WithLabelValues(string(d)).Inc()

			if d == domain.Allow {
				return next(c)
			}
			return WriteDecision(c, d, s)
		}
	}
}

// WriteDecision renders a non-Allow decision:
// RedirectToLogin → 401, RedirectToDefault → 403, Pending → 503 + Retry-After.
func WriteDecision(c echo.Context, d domain.Decision, s domain.Session) error {
	body := GuardResponse{Decision: d, Redirect: service.RedirectTarget(d, s)}
	switch d {
	case domain.RedirectToLogin:
		return c.JSON(http.StatusUnauthorized, body)
	case domain.RedirectToDefault:
		return c.JSON(http.StatusForbidden, body)
	case domain.Pending:
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}
