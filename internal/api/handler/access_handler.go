package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aidattendance/portal/internal/api/metrics"
	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/service"
)

// AccessHandler exposes the capability table: the caller's menu, route checks
// and the guarded page descriptors.
type AccessHandler struct {
	table domain.AccessTable
}

func NewAccessHandler(table domain.AccessTable) *AccessHandler {
	return &AccessHandler{table: table}
}

// Nav returns the menu for the caller's role. Anonymous callers get an empty
// menu.
//
// @Summary      Navigation menu
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  navResponse
// @Router       /nav [get]
func (h *AccessHandler) Nav(c echo.Context) error {
	s := middleware.SessionFrom(c)
	role := s.Role()
	if !s.IsAuthenticated || !role.Valid() {
		return c.JSON(http.StatusOK, navResponse{Items: []domain.NavItem{}})
	}
	return c.JSON(http.StatusOK, navResponse{
		Section: domain.SectionFor(role),
		Home:    role.Home(),
		Items:   service.ResolveNav(h.table, role),
	})
}

// RouteCheck reports what the guard would decide for a path. Paths outside
// the table fall back to the client home, itself a guarded route.
//
// @Summary      Check route access
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        path  query     string  true  "Route path"
// @Success      200   {object}  routeCheckResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /routes/check [get]
func (h *AccessHandler) RouteCheck(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		return echo.NewHTTPError(http.StatusBadRequest, "path must be an absolute route path")
	}

	s := middleware.SessionFrom(c)
	rule, ok := h.table.Lookup(path)
	if !ok {
		rule, _ = h.table.Lookup(domain.ClientHome)
		if d := service.GuardRoute(s, rule); d == domain.Allow {
			return c.JSON(http.StatusOK, routeCheckResponse{
				Path:     path,
				Decision: domain.RedirectToDefault,
				Redirect: s.Role().Home(),
			})
		}
	}

	d := service.GuardRoute(s, rule)
	metrics.GuardDecisionsTotal.WithLabelValues(string(d)).Inc()
	return c.JSON(http.StatusOK, routeCheckResponse{
		Path:     path,
		Decision: d,
		Redirect: service.RedirectTarget(d, s),
	})
}

// Page returns the descriptor of a guarded page. It is mounted behind
// middleware.Guard for every route in the table.
func (h *AccessHandler) Page(entry domain.AccessEntry) echo.HandlerFunc {
	title := ""
	if entry.Nav != nil {
		title = entry.Nav.Label
	}
	return func(c echo.Context) error {
		s := middleware.SessionFrom(c)
		return c.JSON(http.StatusOK, pageResponse{
			Path:     c.Request().URL.Path,
			Route:    entry.Rule.Path,
			Section:  entry.Section,
			Title:    title,
			Identity: s.Identity,
		})
	}
}
