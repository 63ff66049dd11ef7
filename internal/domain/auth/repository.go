package auth

import (
	"context"

	"sitestock/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByLogin retrieves user by login.
	GetByLogin(ctx context.Context, login string) (*User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// Exists checks if login is taken.
	Exists(ctx context.Context, login string) (bool, error)

	// List retrieves users.
	List(ctx context.Context, filter UserFilter) ([]*User, error)
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
