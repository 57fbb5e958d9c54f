package service

import "github.com/aidattendance/portal/internal/core/domain"

// ResolveNav returns the menu for role: the section of its role class,
// filtered by the entries' allowed roles, in table order.
func ResolveNav(table domain.AccessTable, role domain.Role) []domain.NavItem {
	if !role.Valid() {
		return []domain.NavItem{}
	}
	section := domain.SectionFor(role)

	items := make([]domain.NavItem, 0, len(table.Entries))
	for _, e := range table.Entries {
		if e.Nav == nil || e.Section != section {
			continue
		}
		if !e.Rule.Permits(role) {
			continue
		}
		item := *e.Nav
		item.Path = e.Rule.Path
		item.AllowedRoles = e.Rule.Roles
		items = append(items, item)
	}
	return items
}
