// Package auth admits requests to protected API paths. The Gate extracts an
// access token from the request, verifies it, resolves the user it names and
// attaches that user to the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/domain"
	"blog-api/internal/httperr"
)

const (
	// CookieName is both the cookie and the header that carry the token.
	CookieName   = "Authorization"
	bearerPrefix = "Bearer "
)

var protectedPaths = regexp.MustCompile(`(?i)^/api/.*`)

// Verifier validates a raw token and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// PrincipalStore resolves the user named by a verified token.
type PrincipalStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Gate decides whether a request may proceed to the API handlers.
type Gate struct {
	verifier   Verifier
	principals PrincipalStore
	logger     *logrus.Logger
}

func NewGate(verifier Verifier, principals PrincipalStore, logger *logrus.Logger) *Gate {
	if logger == nil {
		logger = logrus.New()
	}
	return &Gate{
		verifier:   verifier,
		principals: principals,
		logger:     logger,
	}
}

// Protects reports whether path requires a credential.
func (g *Gate) Protects(path string) bool {
	return protectedPaths.MatchString(path)
}

// Middleware adapts the Gate to gin. Unprotected paths pass straight through.
// Failures are recorded with c.Error and the chain is aborted so the error
// reporter renders them.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Protects(c.Request.URL.Path) {
			c.Next()
			return
		}

		user, err := g.Authenticate(c.Request)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), user))
		c.Next()
	}
}

// Authenticate resolves the user behind the request credential. The returned
// error is always httperr.ErrCredentialMissing or httperr.ErrCredentialInvalid.
func (g *Gate) Authenticate(r *http.Request) (user *domain.User, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.WithField("path", r.URL.Path).Errorf("auth gate panic: %v", rec)
			user, err = nil, httperr.Wrap(httperr.ErrCredentialInvalid.Status, httperr.ErrCredentialInvalid.Message, fmt.Errorf("panic: %v", rec))
		}
	}()

	token := credential(r)
	if token == "" {
		return nil, httperr.ErrCredentialMissing
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		g.logger.WithField("path", r.URL.Path).Debugf("reject token: %v", err)
		return nil, invalid(err)
	}

	user, err = g.principals.GetByID(r.Context(), int64(claims.UserID))
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"path":    r.URL.Path,
			"user_id": int64(claims.UserID),
		}).Debugf("resolve principal: %v", err)
		return nil, invalid(err)
	}
	if user == nil {
		return nil, httperr.ErrCredentialInvalid
	}
	return user, nil
}

// credential returns the token from the Authorization cookie, falling back to
// an "Authorization: Bearer" header. It returns "" when neither is present.
func credential(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, bearerPrefix); found {
		return strings.TrimSpace(token)
	}
	return ""
}

func invalid(cause error) error {
	return httperr.Wrap(httperr.ErrCredentialInvalid.Status, httperr.ErrCredentialInvalid.Message, cause)
}
