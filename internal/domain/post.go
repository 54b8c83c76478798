package domain

import "time"

// Post is a piece of content owned by a user.
type Post struct {
	ID        int64
	Title     string
	Content   *string
	Published bool
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment describes a file stored remotely for a post.
type Attachment struct {
	Key          string
	Size         int64
	URL          string
	LastModified *time.Time
}
