package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerIssueVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tokens := NewTokenManager(testSecret, 30*time.Minute)
	tokens.now = func() time.Time { return now }

	token, expires, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expires)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, PrincipalID(42), claims.UserID)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, expires.Unix(), claims.ExpiresAt.Unix())

	parsed, _, err := new(jwt.Parser).ParseUnverified(token, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Method.Alg())

	tokens.now = func() time.Time { return now.Add(31 * time.Minute) }
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManagerAcceptsOtherHMACAlgorithms(t *testing.T) {
	t.Parallel()

	tokens := NewTokenManager(testSecret, time.Hour)
	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		token, err := jwt.NewWithClaims(method, Claims{UserID: 7}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		claims, err := tokens.Verify(token)
		require.NoError(t, err, method.Alg())
		assert.Equal(t, PrincipalID(7), claims.UserID)
	}
}

func TestTokenManagerEmptySecret(t *testing.T) {
	t.Parallel()

	tokens := NewTokenManager("", time.Hour)
	_, _, err := tokens.Issue(1)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = tokens.Verify("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerDefaultTTL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Minute, NewTokenManager(testSecret, 0).TTL())
	assert.Equal(t, time.Hour, NewTokenManager(testSecret, time.Hour).TTL())
}

func TestPrincipalIDUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    PrincipalID
		wantErr bool
	}{
		{in: `12`, want: 12},
		{in: `"12"`, want: 12},
		{in: `" 12 "`, want: 12},
		{in: `12.0`, want: 12},
		{in: `1e3`, want: 1000},
		{in: `12.5`, wantErr: true},
		{in: `"abc"`, wantErr: true},
		{in: `""`, wantErr: true},
		{in: `null`, wantErr: true},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		var id PrincipalID
		err := json.Unmarshal([]byte(tt.in), &id)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, id, tt.in)
	}
}
