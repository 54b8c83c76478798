package http

import (
	"time"

	"blog-api/internal/domain"
)

type UserResponse struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	Name      *string          `json:"name,omitempty"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	Posts     []PostResponse   `json:"posts,omitempty"`
	Profile   *ProfileResponse `json:"profile,omitempty"`
}

type ProfileResponse struct {
	ID     int64   `json:"id"`
	Bio    *string `json:"bio"`
	UserID int64   `json:"user_id"`
}

type PostResponse struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   *string `json:"content"`
	Published bool    `json:"published"`
	AuthorID  int64   `json:"author_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type AttachmentResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	URL          string  `json:"url,omitempty"`
	LastModified *string `json:"last_modified,omitempty"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	ExpiresAt string       `json:"expires_at"`
}

func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.Posts != nil {
		resp.Posts = postsToResponse(user.Posts)
	}
	if user.Profile != nil {
		profile := profileToResponse(*user.Profile)
		resp.Profile = &profile
	}
	return resp
}

func profileToResponse(profile domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:     profile.ID,
		Bio:    profile.Bio,
		UserID: profile.UserID,
	}
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}

func postsToResponse(posts []domain.Post) []PostResponse {
	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	return resp
}

func attachmentToResponse(attachment domain.Attachment) AttachmentResponse {
	resp := AttachmentResponse{
		Key:  attachment.Key,
		Size: attachment.Size,
		URL:  attachment.URL,
	}
	if attachment.LastModified != nil && !attachment.LastModified.IsZero() {
		v := attachment.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
