package auth

import (
	"context"

	"blog-api/internal/domain"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the authenticated user.
func WithPrincipal(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFrom returns the user attached by the Gate, if any.
func PrincipalFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*domain.User)
	return user, ok && user != nil
}
