package repository

import (
	"context"
	"errors"

	"blog-api/internal/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// ProfileRepository stores the optional one-to-one profile of a user.
type ProfileRepository interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, profile *domain.Profile) error
	GetByUser(ctx context.Context, userID int64) (*domain.Profile, error)
}
