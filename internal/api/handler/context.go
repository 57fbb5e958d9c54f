package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// ctxFlow returns the caller's authenticated flow and identity. Routes behind
// RequireSession always have both; the check guards against wiring mistakes.
func ctxFlow(c echo.Context) (ports.LoginFlow, *domain.Identity, error) {
	flow, ok := middleware.FlowFrom(c)
	s := middleware.SessionFrom(c)
	if !ok || !s.IsAuthenticated {
		return nil, nil, domain.ErrUnauthenticated
	}
	return flow, s.Identity, nil
}

// bindAndValidate decodes the body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
