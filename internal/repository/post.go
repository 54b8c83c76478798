package repository

import (
	"context"

	"blog-api/internal/domain"
)

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error)
	// ListVisible returns published posts plus drafts owned by viewerID.
	ListVisible(ctx context.Context, viewerID int64) ([]domain.Post, error)
}
