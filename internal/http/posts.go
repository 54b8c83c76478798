package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-api/internal/httperr"
	"blog-api/internal/service"
)

type postRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

func (r postRequest) input() service.PostInput {
	return service.PostInput{
		Title:     r.Title,
		Content:   r.Content,
		Published: r.Published,
	}
}

func (h *Handler) listPosts(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	posts, err := h.posts.List(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, postsToResponse(posts))
}

func (h *Handler) createPost(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.BadRequest(err.Error()))
		return
	}

	post, err := h.posts.Create(c.Request.Context(), user.ID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) getPost(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) updatePost(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.BadRequest(err.Error()))
		return
	}

	post, err := h.posts.Update(c.Request.Context(), user.ID, id, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) deletePost(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	warnings, err := h.posts.Delete(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"deleted": id}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addAttachment(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(httperr.BadRequest("file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		_ = c.Error(httperr.BadRequest("file is unreadable"))
		return
	}
	defer file.Close()

	attachment, err := h.posts.AddAttachment(c.Request.Context(), user.ID, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachmentToResponse(*attachment))
}

func (h *Handler) listAttachments(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	attachments, err := h.posts.ListAttachments(c.Request.Context(), user.ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		resp[i] = attachmentToResponse(attachments[i])
	}
	c.JSON(http.StatusOK, resp)
}
