package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "designer@example.com", "DESIGNER", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "designer@example.com", claims.Subject)
	assert.Equal(t, "DESIGNER", claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("secret", "bob", "OWNER", time.Hour)
	require.NoError(t, err)
	expired, err := NewAccessToken("secret", "bob", "OWNER", -time.Minute)
	require.NoError(t, err)
	anonymous, err := NewAccessToken("secret", "", "OWNER", time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "bob", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"no subject":   {"secret", anonymous.Token},
		"wrong alg":    {"secret", hs512},
		"garbage":      {"secret", "not.a.jwt"},
		"empty":        {"secret", ""},
	}
	for name, tc := range cases {
		_, err := ParseAccessToken(tc.secret, tc.raw)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
