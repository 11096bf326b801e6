package domain

import (
	"context"
	"time"
)

// User represents a registered principal
type User struct {
	ID           int64
	Username     string // unique
	PasswordHash string // bcrypt hash, never serialized
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	// Create inserts a new user. Returns ErrUserExists when the
	// username is already taken.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByUsername returns ErrUserNotFound for unknown usernames.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
