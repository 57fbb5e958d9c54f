package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

// Context keys set by Authenticate.
const (
	FlowKey    = "flow"
	SessionKey = "session"
)

// Authenticate resolves the bearer token into the caller's login flow and
// session. Requests without a usable token continue as anonymous; a token is
// honoured only while its flow is authenticated, so logout revokes it.
func Authenticate(tokens ports.TokenService, flows ports.FlowRegistry, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(SessionKey, domain.NewSession(nil, false))

			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				log.Debug().Err(err).Msg("ignoring invalid bearer token")
				return next(c)
			}

			flow := flows.Restore(c.Request().Context(), claims.FlowID)
			s := flow.Session()
			if !s.IsAuthenticated && !s.IsLoading {
				return next(c)
			}

			c.Set(FlowKey, flow)
			c.Set(SessionKey, s)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SessionFrom returns the session stored by Authenticate, anonymous when the
// middleware did not run.
func SessionFrom(c echo.Context) domain.Session {
	s, ok := c.Get(SessionKey).(domain.Session)
	if !ok {
		return domain.NewSession(nil, false)
	}
	return s
}

// FlowFrom returns the caller's authenticated flow, if any.
func FlowFrom(c echo.Context) (ports.LoginFlow, bool) {
	f, ok := c.Get(FlowKey).(ports.LoginFlow)
	return f, ok
}

// RequireSession rejects anonymous callers with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !SessionFrom(c).IsAuthenticated {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}
