package domain

import "time"

// User represents an account of the system. It is the principal attached to
// authenticated requests.
type User struct {
	ID           int64
	Email        string
	Name         *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Posts        []Post
	Profile      *Profile
}

// Profile holds optional public details of a user.
type Profile struct {
	ID     int64
	Bio    *string
	UserID int64
}
