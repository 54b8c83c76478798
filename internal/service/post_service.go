package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
	"blog-api/internal/storage"
)

var (
	// ErrPostNotFound is returned for missing posts and for drafts the viewer may not see.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotPostAuthor is returned when a user modifies a post owned by someone else.
	ErrNotPostAuthor = errors.New("only the author may modify this post")
	// ErrStorageDisabled is returned by attachment operations when no bucket is configured.
	ErrStorageDisabled = errors.New("attachment storage is not configured")
)

const attachmentURLTTL = 15 * time.Minute

// PostInput carries the writable fields of a post. Nil fields are left unchanged on update.
type PostInput struct {
	Title     *string
	Content   *string
	Published *bool
}

// PostService coordinates post level operations backed by repositories and attachment storage.
type PostService interface {
	Create(ctx context.Context, authorID int64, input PostInput) (*domain.Post, error)
	Get(ctx context.Context, viewerID, id int64) (*domain.Post, error)
	List(ctx context.Context, viewerID int64) ([]domain.Post, error)
	Update(ctx context.Context, authorID, id int64, input PostInput) (*domain.Post, error)
	// Delete removes the post and returns warnings for remote cleanup that failed.
	Delete(ctx context.Context, authorID, id int64) ([]string, error)
	AddAttachment(ctx context.Context, authorID, postID int64, filename, contentType string, body io.Reader) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, viewerID, postID int64) ([]domain.Attachment, error)
}

// AttachmentConfig locates attachments in object storage.
type AttachmentConfig struct {
	Bucket    string
	KeyPrefix string
}

type postService struct {
	posts       repository.PostRepository
	storage     storage.Service
	attachments AttachmentConfig
}

// NewPostService builds a PostService. store may be nil, which disables attachments.
func NewPostService(posts repository.PostRepository, store storage.Service, attachments AttachmentConfig) PostService {
	return &postService{
		posts:       posts,
		storage:     store,
		attachments: attachments,
	}
}

func (s *postService) Create(ctx context.Context, authorID int64, input PostInput) (*domain.Post, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}

	post := &domain.Post{
		Title:    strings.TrimSpace(*input.Title),
		Content:  input.Content,
		AuthorID: authorID,
	}
	if input.Published != nil {
		post.Published = *input.Published
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, viewerID, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if !post.Published && post.AuthorID != viewerID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, viewerID int64) ([]domain.Post, error) {
	return s.posts.ListVisible(ctx, viewerID)
}

func (s *postService) Update(ctx context.Context, authorID, id int64, input PostInput) (*domain.Post, error) {
	post, err := s.owned(ctx, authorID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		post.Title = title
	}
	if input.Content != nil {
		post.Content = input.Content
	}
	if input.Published != nil {
		post.Published = *input.Published
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, authorID, id int64) ([]string, error) {
	post, err := s.owned(ctx, authorID, id)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if s.storageEnabled() {
		if err := s.storage.DeletePrefix(ctx, s.attachments.Bucket, s.attachmentPrefix(post.ID)); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete attachments: %v", err))
		}
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return warnings, nil
}

func (s *postService) AddAttachment(ctx context.Context, authorID, postID int64, filename, contentType string, body io.Reader) (*domain.Attachment, error) {
	if !s.storageEnabled() {
		return nil, ErrStorageDisabled
	}
	post, err := s.owned(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, &ValidationError{Field: "file", Reason: "must have a name"}
	}

	counter := &countingReader{r: body}
	key := s.attachmentPrefix(post.ID) + fmt.Sprintf("%s-%s", uuid.NewString(), name)
	if _, err := s.storage.Upload(ctx, counter, storage.UploadOptions{
		Bucket:      s.attachments.Bucket,
		Key:         key,
		ContentType: contentType,
	}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	attachment := &domain.Attachment{
		Key:          key,
		Size:         counter.n,
		LastModified: &now,
	}
	if url, err := s.storage.GetObjectURL(ctx, s.attachments.Bucket, key, attachmentURLTTL); err == nil {
		attachment.URL = url
	}
	return attachment, nil
}

func (s *postService) ListAttachments(ctx context.Context, viewerID, postID int64) ([]domain.Attachment, error) {
	if !s.storageEnabled() {
		return nil, ErrStorageDisabled
	}
	post, err := s.Get(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}

	objects, err := s.storage.ListObjects(ctx, s.attachments.Bucket, s.attachmentPrefix(post.ID))
	if err != nil {
		return nil, err
	}

	attachments := make([]domain.Attachment, len(objects))
	for i, obj := range objects {
		attachments[i] = domain.Attachment{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}
		url, err := s.storage.GetObjectURL(ctx, s.attachments.Bucket, obj.Key, attachmentURLTTL)
		if err != nil {
			return nil, err
		}
		attachments[i].URL = url
	}
	return attachments, nil
}

func (s *postService) owned(ctx context.Context, authorID, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.AuthorID != authorID {
		if !post.Published {
			return nil, ErrPostNotFound
		}
		return nil, ErrNotPostAuthor
	}
	return post, nil
}

func (s *postService) storageEnabled() bool {
	return s.storage != nil && s.attachments.Bucket != ""
}

func (s *postService) attachmentPrefix(postID int64) string {
	prefix := strings.Trim(s.attachments.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return fmt.Sprintf("%sposts/%d/", prefix, postID)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
