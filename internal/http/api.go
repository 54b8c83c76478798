package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/httperr"
	"blog-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	posts        service.PostService
	tokens       *auth.TokenManager
	gate         *auth.Gate
	logger       *logrus.Logger
	cors         CORSOptions
	development  bool
	secureCookie bool
}

// Options carries the non-service settings of a Handler.
type Options struct {
	CORS        CORSOptions
	Development bool
}

func NewHandler(users service.UserService, posts service.PostService, tokens *auth.TokenManager, gate *auth.Gate, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:        users,
		posts:        posts,
		tokens:       tokens,
		gate:         gate,
		logger:       logger,
		cors:         opts.CORS,
		development:  opts.Development,
		secureCookie: !opts.Development,
	}
}

// RegisterRoutes installs middleware and routes. The gate runs on every
// request and only inspects paths under /api.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(ErrorReporter(h.logger, h.development))
	router.Use(corsMiddleware(h.cors))
	router.Use(h.gate.Middleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.POST("/signup", h.signUp)
	router.POST("/login", h.logIn)

	api := router.Group("/api")
	{
		api.POST("/logout", h.logOut)
		api.GET("/me", h.me)
		api.PUT("/me/profile", h.updateProfile)
		api.GET("/users/:id", h.getUser)

		api.GET("/posts", h.listPosts)
		api.POST("/posts", h.createPost)
		api.GET("/posts/:id", h.getPost)
		api.PUT("/posts/:id", h.updatePost)
		api.DELETE("/posts/:id", h.deletePost)
		api.GET("/posts/:id/attachments", h.listAttachments)
		api.POST("/posts/:id/attachments", h.addAttachment)
	}
}

type signUpRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required"`
	Name     *string `json:"name"`
}

type logInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Bio *string `json:"bio"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.BadRequest(err.Error()))
		return
	}

	user, err := h.users.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) logIn(c *gin.Context) {
	var req logInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.BadRequest(err.Error()))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.tokens.TTL()/time.Second), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, LoginResponse{
		User:      userToResponse(*user),
		Token:     token,
		ExpiresIn: int64(h.tokens.TTL() / time.Second),
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) logOut(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) me(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	account, err := h.users.GetAccount(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*account))
}

func (h *Handler) updateProfile(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.BadRequest(err.Error()))
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), user.ID, req.Bio)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profileToResponse(*profile))
}

func (h *Handler) getUser(c *gin.Context) {
	viewer, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	account, err := h.users.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if account.ID != viewer.ID {
		var published []domain.Post
		for _, post := range account.Posts {
			if post.Published {
				published = append(published, post)
			}
		}
		account.Posts = published
	}
	c.JSON(http.StatusOK, userToResponse(*account))
}

// principal returns the user the gate attached. Handlers under /api always
// have one; the check guards against routes registered without the gate.
func principal(c *gin.Context) (*domain.User, bool) {
	user, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		_ = c.Error(httperr.ErrCredentialMissing)
		c.Abort()
	}
	return user, ok
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(httperr.BadRequest("invalid " + name))
		return 0, false
	}
	return id, true
}

// fail records err translated to an HTTP error for the error reporter.
func (h *Handler) fail(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		err = httperr.BadRequest(validation.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		err = httperr.New(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUserAlreadyExists):
		err = httperr.Conflict("This email already exists")
	case errors.Is(err, service.ErrUserNotFound):
		err = httperr.NotFound("User not found")
	case errors.Is(err, service.ErrPostNotFound):
		err = httperr.NotFound("Post not found")
	case errors.Is(err, service.ErrNotPostAuthor):
		err = httperr.Forbidden("Only the author may modify this post")
	case errors.Is(err, service.ErrStorageDisabled):
		err = httperr.Wrap(http.StatusServiceUnavailable, "Attachment storage is not configured", err)
	case httperr.As(err) == nil:
		err = httperr.Wrap(http.StatusInternalServerError, "", err)
	}
	_ = c.Error(err)
}
