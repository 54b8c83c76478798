package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bio TEXT NULL,
	user_id INTEGER NOT NULL UNIQUE,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProfilesTable); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

// Upsert creates the profile of profile.UserID or replaces its bio. profile.ID is filled in.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO profiles (bio, user_id)
VALUES (?, ?)
ON CONFLICT(user_id) DO UPDATE SET bio = excluded.bio
RETURNING id`,
		nullString(profile.Bio),
		profile.UserID,
	)
	if err := row.Scan(&profile.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("profile owner %d: %w", profile.UserID, repository.ErrNotFound)
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUser(ctx context.Context, userID int64) (*domain.Profile, error) {
	var (
		profile domain.Profile
		bio     sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, bio, user_id
FROM profiles
WHERE user_id = ?`,
		userID,
	).Scan(&profile.ID, &bio, &profile.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	profile.Bio = stringPtr(bio)
	return &profile, nil
}
