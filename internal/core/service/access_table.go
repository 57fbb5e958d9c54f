package service

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aidattendance/portal/internal/core/domain"
)

var staffRoles = []domain.Role{domain.RoleAdmin, domain.RoleRepresentative, domain.RoleEmployee}

var adminOnly = []domain.Role{domain.RoleAdmin}

func entry(path string, section domain.Section, roles []domain.Role, nav *domain.NavItem) domain.AccessEntry {
	return domain.AccessEntry{
		Rule:    domain.RouteAccessRule{Path: path, Roles: roles},
		Section: section,
		Nav:     nav,
	}
}

func nav(label, icon string) *domain.NavItem {
	return &domain.NavItem{Label: label, Icon: icon}
}

// DefaultAccessTable returns the built-in capability table of the portal.
// Client routes admit every authenticated role; staff routes admit the staff
// class, with company, professional and administrator management narrowed to
// admins.
func DefaultAccessTable() domain.AccessTable {
	c, s := domain.SectionClient, domain.SectionStaff
	return domain.AccessTable{Entries: []domain.AccessEntry{
		entry("/dashboard", c, nil, nav("Home", "home")),
		entry("/application", c, nil, nav("Application", "file-text")),
		entry("/application/review", c, nil, nil),
		entry("/messages", c, nil, nav("Messages", "message-square")),
		entry("/my-account", c, nil, nil),
		entry("/change-password", c, nil, nil),

		entry("/staff/dashboard", s, staffRoles, nav("Dashboard", "layout-dashboard")),
		entry("/staff/users", s, staffRoles, nav("Users", "users")),
		entry("/staff/users/new", s, staffRoles, nil),
		entry("/staff/users/:id", s, staffRoles, nil),
		entry("/staff/users/:id/edit", s, staffRoles, nil),
		entry("/staff/clients", s, staffRoles, nav("Clients", "user-check")),
		entry("/staff/clients/new", s, staffRoles, nil),
		entry("/staff/clients/:id", s, staffRoles, nil),
		entry("/staff/clients/:id/edit", s, staffRoles, nil),
		entry("/staff/companies", s, adminOnly, nav("Companies", "building")),
		entry("/staff/companies/:id/edit", s, adminOnly, nil),
		entry("/staff/professionals", s, adminOnly, nav("Professionals", "briefcase")),
		entry("/staff/professionals/:id/edit", s, adminOnly, nil),
		entry("/staff/administrators", s, adminOnly, nav("Administrators", "shield")),
		entry("/staff/messages", s, staffRoles, nav("Messages", "message-square")),
	}}
}

type tableFile struct {
	Routes []routeFile `yaml:"routes"`
}

type routeFile struct {
	Path    string   `yaml:"path"`
	Section string   `yaml:"section"`
	Roles   []string `yaml:"roles"`
	Nav     *struct {
		Label string `yaml:"label"`
		Icon  string `yaml:"icon"`
	} `yaml:"nav"`
}

var ErrInvalidAccessTable = errors.New("invalid access table")

// LoadAccessTable parses a YAML capability table:
//
//	routes:
//	  - path: /staff/users
//	    section: staff
//	    roles: [admin, representative, employee]
//	    nav: {label: Users, icon: users}
func LoadAccessTable(r io.Reader) (domain.AccessTable, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return domain.AccessTable{}, fmt.Errorf("%w: %v", ErrInvalidAccessTable, err)
	}
	if len(f.Routes) == 0 {
		return domain.AccessTable{}, fmt.Errorf("%w: no routes", ErrInvalidAccessTable)
	}

	table := domain.AccessTable{Entries: make([]domain.AccessEntry, 0, len(f.Routes))}
	for i, rf := range f.Routes {
		if rf.Path == "" {
			return domain.AccessTable{}, fmt.Errorf("%w: route %d has no path", ErrInvalidAccessTable, i)
		}
		section := domain.Section(rf.Section)
		if section != domain.SectionClient && section != domain.SectionStaff {
			return domain.AccessTable{}, fmt.Errorf("%w: route %s: unknown section %q", ErrInvalidAccessTable, rf.Path, rf.Section)
		}

		var roles []domain.Role
		for _, name := range rf.Roles {
			role := domain.Role(name)
			if !role.Valid() {
				return domain.AccessTable{}, fmt.Errorf("%w: route %s: %w %q", ErrInvalidAccessTable, rf.Path, domain.ErrUnknownRole, name)
			}
			roles = append(roles, role)
		}

		var item *domain.NavItem
		if rf.Nav != nil {
			item = &domain.NavItem{Label: rf.Nav.Label, Icon: rf.Nav.Icon}
		}
		table.Entries = append(table.Entries, entry(rf.Path, section, roles, item))
	}
	return table, nil
}
