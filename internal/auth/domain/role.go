package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Role is the closed set of roles. Roles are stored on the user record as a
// string but only these values are valid.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
)

// Permission names one allowed action. Checks are exact membership against a
// role's fixed set, or unconditional via the wildcard.
type Permission string

const (
	// PermissionWildcard grants every permission, enumerated or not. Only
	// the admin role carries it.
	PermissionWildcard Permission = "*"

	PermManageUsers    Permission = "manage_users"
	PermManageInvites  Permission = "manage_invites"
	PermViewDashboard  Permission = "view_dashboard"
	PermViewReports    Permission = "view_reports"
	PermExportData     Permission = "export_data"
	PermViewOwnProfile Permission = "view_own_profile"
	PermEditOwnProfile Permission = "edit_own_profile"
)

// ErrUnknownRole reports a role string outside the closed set.
var ErrUnknownRole = errors.New("domain: unknown role")

// roleRanks is the hierarchy. Rank and permission breadth are independent
// axes: a role's rank says nothing about how broad its permission set is.
var roleRanks = map[Role]int{
	RoleAdmin:  100,
	RoleStaff:  50,
	RoleMember: 10,
}

// rolePermissions is the canonical permission table. Permissions are additive
// per role with no inheritance; every non-admin role enumerates its full set.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {PermissionWildcard},
	RoleStaff: {
		PermManageInvites,
		PermViewDashboard,
		PermViewReports,
		PermExportData,
		PermViewOwnProfile,
		PermEditOwnProfile,
	},
	RoleMember: {
		PermViewDashboard,
		PermViewOwnProfile,
		PermEditOwnProfile,
	},
}

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the numeric hierarchy rank, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Permissions returns a copy of the role's permission set.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// Can reports whether the role holds the permission, either through the
// wildcard or exact membership.
func (r Role) Can(p Permission) bool {
	perms := rolePermissions[r]
	if slices.Contains(perms, PermissionWildcard) {
		return true
	}
	return slices.Contains(perms, p)
}

// AtLeast reports whether the role's rank meets or exceeds the required
// role's rank.
func (r Role) AtLeast(required Role) bool {
	return r.Rank() >= required.Rank()
}

func (r Role) String() string { return string(r) }
