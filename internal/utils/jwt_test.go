package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", []string{"USER", "MANAGER"}, 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	assert.Equal(t, 3, len(strings.Split(at.Token, ".")), "compact JWS has three parts")

	sub, roles, ok := ParseAccessToken(testSecret, at.Token)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", sub)
	assert.Equal(t, []string{"USER", "MANAGER"}, roles)
}

func TestParseAccessTokenEmptyRoles(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", nil, 15)
	require.NoError(t, err)

	sub, roles, ok := ParseAccessToken(testSecret, at.Token)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", sub)
	assert.Empty(t, roles)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", []string{"USER"}, 15)
	require.NoError(t, err)

	_, _, ok := ParseAccessToken("another-secret-another-secret-32", at.Token)
	assert.False(t, ok)
}

func TestParseAccessTokenTampered(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", []string{"USER"}, 15)
	require.NoError(t, err)

	parts := strings.Split(at.Token, ".")
	// Flip a character in the payload; the MAC no longer matches.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, _, ok := ParseAccessToken(testSecret, tampered)
	assert.False(t, ok)
}

func TestParseAccessTokenExpired(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", []string{"USER"}, -1)
	require.NoError(t, err)

	_, _, ok := ParseAccessToken(testSecret, at.Token)
	assert.False(t, ok, "expired token must not verify")
	assert.True(t, IsTokenExpired(at.Token))
}

func TestParseAccessTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, _, ok := ParseAccessToken(testSecret, raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestIsTokenExpired(t *testing.T) {
	at, err := NewAccessToken(testSecret, "alice@x.com", []string{"USER"}, 15)
	require.NoError(t, err)

	assert.False(t, IsTokenExpired(at.Token))
	// Diagnostics only: an unparseable token counts as expired.
	assert.True(t, IsTokenExpired("garbage"))
}

func TestNewRefreshTokenShape(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, rt.Raw, 96, "48 random bytes hex-encoded")
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), rt.Exp, time.Minute)

	other, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestHashRefreshRawStable(t *testing.T) {
	h1 := HashRefreshRaw("token-value")
	h2 := HashRefreshRaw("token-value")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashRefreshRaw("other-value"))
}
