package domain

import "strings"

// Section selects one of the two disjoint navigation tables.
type Section string

const (
	SectionClient Section = "client"
	SectionStaff  Section = "staff"
)

// SectionFor returns the navigation section for a role class.
func SectionFor(r Role) Section {
	if r.IsStaff() {
		return SectionStaff
	}
	return SectionClient
}

// RouteAccessRule declares which roles may view a route. An empty Roles set
// admits any authenticated role.
type RouteAccessRule struct {
	Path  string
	Roles []Role
}

// Unrestricted reports whether the rule admits every authenticated role.
func (r RouteAccessRule) Unrestricted() bool {
	return len(r.Roles) == 0
}

// Permits reports whether role may view the route.
func (r RouteAccessRule) Permits(role Role) bool {
	if r.Unrestricted() {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Matches reports whether a concrete request path matches the rule pattern.
// Pattern segments starting with ':' match any single non-empty segment.
func (r RouteAccessRule) Matches(path string) bool {
	want := splitPath(r.Path)
	got := splitPath(path)
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, ":") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// NavItem is one entry of the visible menu.
type NavItem struct {
	Label        string `json:"label"`
	Path         string `json:"path"`
	Icon         string `json:"icon"`
	AllowedRoles []Role `json:"allowed_roles,omitempty"`
}

// AccessEntry is one row of the capability table: a route rule plus an
// optional menu entry in one section.
type AccessEntry struct {
	Rule    RouteAccessRule
	Section Section
	Nav     *NavItem
}

// AccessTable is the single declarative capability table shared by the route
// guard and the navigation composer. Order is significant.
type AccessTable struct {
	Entries []AccessEntry
}

// Lookup returns the rule of the first entry matching path.
func (t AccessTable) Lookup(path string) (RouteAccessRule, bool) {
	for _, e := range t.Entries {
		if e.Rule.Matches(path) {
			return e.Rule, true
		}
	}
	return RouteAccessRule{}, false
}

// Rules returns every route rule in table order.
func (t AccessTable) Rules() []RouteAccessRule {
	out := make([]RouteAccessRule, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, e.Rule)
	}
	return out
}

// Decision is the outcome of guarding a route.
type Decision string

const (
	Allow             Decision = "allow"
	RedirectToLogin   Decision = "redirect_to_login"
	RedirectToDefault Decision = "redirect_to_default"
	// Pending holds rendering while the session is still hydrating.
	Pending Decision = "pending"
)
