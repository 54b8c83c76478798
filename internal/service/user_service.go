package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when signing up with an email already in use.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports unacceptable input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// UserService describes user lifecycle operations.
type UserService interface {
	SignUp(ctx context.Context, email, password string, name *string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	// GetByID performs a single store read and never returns the password hash.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetAccount returns the user together with its posts and profile.
	GetAccount(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, bio *string) (*domain.Profile, error)
}

type userService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
}

func NewUserService(users repository.UserRepository, profiles repository.ProfileRepository, posts repository.PostRepository) UserService {
	return &userService{
		users:    users,
		profiles: profiles,
		posts:    posts,
	}
}

func (s *userService) SignUp(ctx context.Context, email, password string, name *string) (*domain.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		name = &trimmed
		if trimmed == "" {
			name = nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetAccount(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUser(ctx, id)
	switch {
	case err == nil:
		user.Profile = profile
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Posts = posts
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, bio *string) (*domain.Profile, error) {
	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		bio = &trimmed
	}
	profile := &domain.Profile{UserID: userID, Bio: bio}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Posts:     user.Posts,
		Profile:   user.Profile,
	}
}
