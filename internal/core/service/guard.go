package service

import "github.com/aidattendance/portal/internal/core/domain"

// GuardRoute decides whether the session may view a route guarded by rule.
// While the session is still hydrating the decision is Pending, so an already
// signed-in user is never bounced to the login page.
func GuardRoute(s domain.Session, rule domain.RouteAccessRule) domain.Decision {
	switch {
	case s.IsLoading:
		return domain.Pending
	case !s.IsAuthenticated:
		return domain.RedirectToLogin
	case !rule.Permits(s.Role()):
		return domain.RedirectToDefault
	default:
		return domain.Allow
	}
}

// RedirectTarget returns where a non-Allow decision sends the user.
func RedirectTarget(d domain.Decision, s domain.Session) string {
	switch d {
	case domain.RedirectToLogin:
		return domain.LoginPath
	case domain.RedirectToDefault:
		return s.Role().Home()
	}
	return ""
}
