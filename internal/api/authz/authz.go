package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const RoleAdmin = "admin"

// AuthUser is the signed-in user for the current request.
type AuthUser struct {
	Email        string
	Name         string
	Role         string
	SessionToken string
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// IsAdmin reports whether user holds the admin role.
func IsAdmin(user *AuthUser) bool {
	return user != nil && strings.EqualFold(user.Role, RoleAdmin)
}

// RequireAuthenticated returns ErrUnauthenticated when ctx has no user.
func RequireAuthenticated(ctx context.Context) error {
	if UserFromContext(ctx) == nil {
		return ErrUnauthenticated
	}
	return nil
}

// RequireRole returns ErrUnauthenticated without a user and ErrForbidden
// when the user's role differs from role (case-insensitive).
func RequireRole(ctx context.Context, role string) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if !strings.EqualFold(user.Role, role) {
		return ErrForbidden
	}
	return nil
}
