package auth

import (
	"context"

	"gestor/internal/models"
)

type ctxKey string

const userKey ctxKey = "userClaims"

// Claims is the authenticated identity attached to a request.
type Claims struct {
	Subject     string
	Roles       []string
	Permissions []string
}

// HasRole is an exact membership check against the role list.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the claim set carries the permission or the
// wildcard.
func (c Claims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm || p == models.WildcardPermission {
			return true
		}
	}
	return false
}

// HasAnyPermission is true when the claim set carries the wildcard or
// intersects required. An empty claim set never satisfies a non-empty
// required list.
func (c Claims) HasAnyPermission(required ...string) bool {
	for _, p := range c.Permissions {
		if p == models.WildcardPermission {
			return true
		}
		for _, r := range required {
			if p == r {
				return true
			}
		}
	}
	return false
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, userKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(userKey).(Claims); ok {
		return v
	}
	return Claims{}
}

// Subject returns the authenticated user's email, or "" when unauthenticated.
func Subject(ctx context.Context) string {
	return FromContext(ctx).Subject
}
