package auth

import (
	"context"
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role.IsAdmin()
}

// Can reports whether the principal's role grants permission
func (p *Principal) Can(permission Permission) bool {
	return p != nil && RoleHasPermission(p.Role, permission)
}

// OwnsOrAdmin reports whether the principal is ownerID or an admin
func (p *Principal) OwnsOrAdmin(ownerID int64) bool {
	if p == nil {
		return false
	}
	return p.UserID == ownerID || p.Role.IsAdmin()
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil for anonymous requests
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Decision is the outcome of an authorization check
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Authorize checks p against a set of accepted roles. An empty set accepts
// any authenticated principal.
func Authorize(p *Principal, roles ...Role) Decision {
	if p == nil {
		return Unauthenticated
	}
	if len(roles) == 0 {
		return Allowed
	}
	for _, r := range roles {
		if p.Role == r {
			return Allowed
		}
	}
	return Forbidden
}

// AuthorizePermission checks p against a single permission
func AuthorizePermission(p *Principal, permission Permission) Decision {
	if p == nil {
		return Unauthenticated
	}
	if !p.Can(permission) {
		return Forbidden
	}
	return Allowed
}
