package ctxutil

import (
	"context"

	"saultochat/internal/model/auth"
)

// userKeyType is private to avoid collisions with other context keys.
type userKeyType struct{}

var userKey = userKeyType{}

// WithUser injects the authenticated user into the context. Called by
// the session middleware after a token validates.
func WithUser(ctx context.Context, u *auth.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the authenticated user from the context, if any.
func GetUser(ctx context.Context) (*auth.User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(userKey).(*auth.User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}
