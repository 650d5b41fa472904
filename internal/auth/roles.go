package auth

import (
	"strings"
)

// Role is the access level of an account
type Role string

const (
	RoleReader       Role = "reader"
	RoleCollaborator Role = "collaborator"
	RoleAdmin        Role = "admin"
)

var validRoles = map[Role]struct{}{
	RoleReader:       {},
	RoleCollaborator: {},
	RoleAdmin:        {},
}

func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}

// IsAdmin reports whether r is the admin role
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// CanWriteArticles reports whether r may author articles and categories
func (r Role) CanWriteArticles() bool {
	return r == RoleCollaborator || r == RoleAdmin
}

// ParseRole normalises a stored or submitted role name
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// Permission names an action guarded by role
type Permission string

const (
	PermissionWriteArticles    Permission = "articles.write"
	PermissionManageCategories Permission = "categories.manage"
	PermissionUploadImages     Permission = "uploads.create"
	PermissionModerateComments Permission = "comments.moderate"
	PermissionManageDonations  Permission = "donations.manage"
	PermissionManageNewsletter Permission = "newsletter.manage"
	PermissionManageUsers      Permission = "users.manage"
	PermissionEditAnyContent   Permission = "content.edit_any"
)

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleAdmin: {
		PermissionWriteArticles:    {},
		PermissionManageCategories: {},
		PermissionUploadImages:     {},
		PermissionModerateComments: {},
		PermissionManageDonations:  {},
		PermissionManageNewsletter: {},
		PermissionManageUsers:      {},
		PermissionEditAnyContent:   {},
	},
	RoleCollaborator: {
		PermissionWriteArticles:    {},
		PermissionManageCategories: {},
		PermissionUploadImages:     {},
	},
	RoleReader: {},
}

// RoleHasPermission reports whether role grants permission
func RoleHasPermission(role Role, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}
