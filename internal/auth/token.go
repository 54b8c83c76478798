package auth

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("signing secret is empty")
)

// PrincipalID is the user identifier carried in the "id" claim. Tokens may
// encode it as a JSON number or as a numeric string.
type PrincipalID int64

func (p *PrincipalID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return fmt.Errorf("id claim is null")
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("id claim: %w", err)
		}
		raw = strings.TrimSpace(unquoted)
	}

	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*p = PrincipalID(id)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("id claim %q is not an integer", raw)
	}
	*p = PrincipalID(f)
	return nil
}

// Claims is the payload of an access token.
type Claims struct {
	UserID PrincipalID `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HMAC access tokens with a single secret.
// The secret can be swapped at runtime with Rotate.
type TokenManager struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var validMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Rotate replaces the signing secret. Tokens signed with the previous secret stop verifying.
func (m *TokenManager) Rotate(secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = []byte(secret)
}

func (m *TokenManager) key() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secret
}

// Issue signs an HS256 token for userID and returns it with its expiry.
func (m *TokenManager) Issue(userID int64) (string, time.Time, error) {
	secret := m.key()
	if len(secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := m.now()
	expires := now.Add(m.ttl)
	claims := Claims{
		UserID: PrincipalID(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature and time claims of token and returns its claims.
// Every failure wraps ErrInvalidToken.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	secret := m.key()
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMissingSecret)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods(validMethods), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: id claim missing", ErrInvalidToken)
	}
	return claims, nil
}
