package auth

import (
	"context"
	"errors"

	"saultochat/internal/model/auth"
)

// ErrNotFound is returned when no user matches the query.
var ErrNotFound = errors.New("user not found")

// UserStore persists accounts created on OAuth login. Backed by Mongo
// in production and by an in-memory map otherwise.
type UserStore interface {
	// Create inserts a new user, stamping created_at/updated_at.
	Create(ctx context.Context, user *auth.User) error

	// FindByID looks a user up by id.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// FindByEmail looks a user up by email, the natural key for logins.
	FindByEmail(ctx context.Context, email string) (*auth.User, error)

	// UpdateProfile refreshes provider-sourced profile fields and the
	// last-login timestamp after a successful login.
	UpdateProfile(ctx context.Context, user *auth.User) error

	// UpdateRole changes a user's role.
	UpdateRole(ctx context.Context, id string, role auth.UserRole) error

	// List returns all users, newest first.
	List(ctx context.Context) ([]*auth.User, error)

	// CountAdmins reports how many admin accounts exist.
	CountAdmins(ctx context.Context) (int64, error)
}
