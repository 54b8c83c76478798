package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/domain"
	"blog-api/internal/httperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key-for-unit-tests"

type fakeStore struct {
	users map[int64]*domain.User
	err   error
	reads atomic.Int64
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.reads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

type panicVerifier struct{}

func (panicVerifier) Verify(string) (*Claims, error) { panic("boom") }

// newTestRouter wires the gate the way the server does: an error reporter
// that renders {"message"} plus the gate, followed by a catch-all handler that
// records the attached principal.
func newTestRouter(gate *Gate, seen *[]*domain.User, calls *int) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		if last := c.Errors.Last(); last != nil {
			status, message := httperr.StatusAndMessage(last.Err)
			c.JSON(status, gin.H{"message": message})
		}
	})
	router.Use(gate.Middleware())
	router.NoRoute(func(c *gin.Context) {
		*calls++
		user, _ := PrincipalFrom(c.Request.Context())
		*seen = append(*seen, user)
		c.Status(http.StatusOK)
	})
	return router
}

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func issue(t *testing.T, tokens *TokenManager, id int64) string {
	t.Helper()
	token, _, err := tokens.Issue(id)
	require.NoError(t, err)
	return token
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func newFixture() (*TokenManager, *fakeStore, *Gate) {
	tokens := NewTokenManager(testSecret, time.Hour)
	store := &fakeStore{users: map[int64]*domain.User{
		1: {ID: 1, Email: "alice@example.com"},
		2: {ID: 2, Email: "bob@example.com"},
	}}
	return tokens, store, NewGate(tokens, store, nil)
}

func TestGateProtects(t *testing.T) {
	t.Parallel()

	_, _, gate := newFixture()
	tests := []struct {
		path string
		want bool
	}{
		{"/api/posts", true},
		{"/api/", true},
		{"/API/posts", true},
		{"/Api/me", true},
		{"/api", false},
		{"/apix/posts", false},
		{"/login", false},
		{"/health", false},
		{"/", false},
		{"/v1/api/posts", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gate.Protects(tt.path), tt.path)
	}
}

func TestGateMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("unprotected paths pass without inspecting credentials", func(t *testing.T) {
		t.Parallel()

		_, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		for _, path := range []string{"/health", "/login", "/apix"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer not-a-jwt")
			req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, path)
		}
		assert.Equal(t, 3, calls)
		assert.Equal(t, []*domain.User{nil, nil, nil}, seen)
		assert.Zero(t, store.reads.Load())
	})

	t.Run("missing credential is rejected", func(t *testing.T) {
		t.Parallel()

		_, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		headers := []string{"", "Bearer ", "Basic dXNlcjpwYXNz", "bearer abc"}
		for _, header := range headers {
			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, header)
			assert.Equal(t, "Authentication token missing", decodeMessage(t, w), header)
		}
		assert.Zero(t, calls)
		assert.Zero(t, store.reads.Load())
	})

	t.Run("invalid or expired tokens are rejected", func(t *testing.T) {
		t.Parallel()

		_, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		expired := signToken(t, testSecret, Claims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		forged := signToken(t, "another-secret", Claims{UserID: 1})
		noID := signToken(t, testSecret, jwt.MapClaims{"sub": "1"})
		badID := signToken(t, testSecret, jwt.MapClaims{"id": "abc"})
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		for name, token := range map[string]string{
			"malformed": "not.a.jwt",
			"expired":   expired,
			"forged":    forged,
			"no id":     noID,
			"bad id":    badID,
			"alg none":  none,
		} {
			for _, viaCookie := range []bool{true, false} {
				req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
				if viaCookie {
					req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
				} else {
					req.Header.Set("Authorization", "Bearer "+token)
				}
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusUnauthorized, w.Code, name)
				assert.Equal(t, "Wrong authentication token", decodeMessage(t, w), name)
			}
		}
		assert.Zero(t, calls)
		assert.Zero(t, store.reads.Load())
	})

	t.Run("valid token for a missing principal is indistinguishable from a bad token", func(t *testing.T) {
		t.Parallel()

		tokens, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, 99))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Wrong authentication token", decodeMessage(t, w))
		assert.Zero(t, calls)
		assert.Equal(t, int64(1), store.reads.Load())
	})

	t.Run("lookup failures are reported as invalid credentials", func(t *testing.T) {
		t.Parallel()

		tokens, store, gate := newFixture()
		store.err = errors.New("database is locked")
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, 1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Wrong authentication token", decodeMessage(t, w))
		assert.Zero(t, calls)
	})

	t.Run("valid token attaches the principal and proceeds once", func(t *testing.T) {
		t.Parallel()

		tokens, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, 2))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, 1, calls)
		require.Len(t, seen, 1)
		require.NotNil(t, seen[0])
		assert.Equal(t, int64(2), seen[0].ID)
		assert.Equal(t, int64(1), store.reads.Load())
	})

	t.Run("string id claims are coerced", func(t *testing.T) {
		t.Parallel()

		_, _, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		token := signToken(t, testSecret, jwt.MapClaims{"id": "1", "exp": time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, seen, 1)
		assert.Equal(t, int64(1), seen[0].ID)
	})

	t.Run("cookie takes precedence over header", func(t *testing.T) {
		t.Parallel()

		tokens, _, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, tokens, 1)})
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, 2))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, seen, 1)
		assert.Equal(t, int64(1), seen[0].ID)
	})

	t.Run("repeated requests yield the same outcome", func(t *testing.T) {
		t.Parallel()

		tokens, store, gate := newFixture()
		var seen []*domain.User
		calls := 0
		router := newTestRouter(gate, &seen, &calls)
		token := issue(t, tokens, 1)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)

			missing := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			w = httptest.NewRecorder()
			router.ServeHTTP(w, missing)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Authentication token missing", decodeMessage(t, w))
		}
		assert.Equal(t, 3, calls)
		assert.Equal(t, int64(3), store.reads.Load())
	})
}

func TestGateAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("returns the credential sentinels", func(t *testing.T) {
		t.Parallel()

		_, _, gate := newFixture()

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		_, err := gate.Authenticate(req)
		assert.ErrorIs(t, err, httperr.ErrCredentialMissing)

		req.Header.Set("Authorization", "Bearer nope")
		_, err = gate.Authenticate(req)
		assert.ErrorIs(t, err, httperr.ErrCredentialInvalid)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("panics in collaborators become invalid credentials", func(t *testing.T) {
		t.Parallel()

		gate := NewGate(panicVerifier{}, &fakeStore{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer token")

		var (
			user *domain.User
			err  error
		)
		assert.NotPanics(t, func() { user, err = gate.Authenticate(req) })
		assert.Nil(t, user)
		assert.ErrorIs(t, err, httperr.ErrCredentialInvalid)
	})

	t.Run("rotated secret invalidates earlier tokens", func(t *testing.T) {
		t.Parallel()

		tokens, _, gate := newFixture()
		old := issue(t, tokens, 1)
		tokens.Rotate("rotated-secret")

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+old)
		_, err := gate.Authenticate(req)
		assert.ErrorIs(t, err, httperr.ErrCredentialInvalid)

		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, 1))
		user, err := gate.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})
}
