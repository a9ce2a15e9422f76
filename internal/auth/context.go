package auth

import (
	"context"
)

// UserContext holds the authenticated account and its resolved permissions
type UserContext struct {
	UserID      uint
	FullName    string
	Email       string
	Roles       []string
	Permissions PermissionSet
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// HasRole checks if the user carries a specific role name
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the resolved permissions grant full access
func (u *UserContext) IsAdmin() bool {
	return u.Permissions.Allows("*", "*")
}
