package security

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	hash2, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2, "hashes should be salted")

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "Secret123", want: true},
		{name: "incorrect password", password: "wrong", want: false},
		{name: "empty password", password: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, hash))
		})
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 80))
	require.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to hash password"))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	signer := NewSessionTokenSigner("test-secret")
	sid := GenerateSessionID()

	token, err := signer.Sign(sid, 42, time.Now())
	require.NoError(t, err)

	got, err := signer.SessionID(token)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
}

func TestSessionTokenRejectsTampering(t *testing.T) {
	token, err := NewSessionTokenSigner("right").Sign("sid", 1, time.Now())
	require.NoError(t, err)

	_, err = NewSessionTokenSigner("wrong").SessionID(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSessionTokenSigner("right").SessionID("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("sid-1")
	require.NoError(t, err)

	assert.True(t, g.ValidateToken("sid-1", token))
	assert.False(t, g.ValidateToken("sid-2", token))
	assert.False(t, g.ValidateToken("sid-1", ""))

	_, err = g.GenerateToken("")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs have their own bucket")

	assert.Equal(t, 2, rl.evictIdle(time.Now().Add(time.Hour)))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:51234"
	assert.Equal(t, "192.0.2.10", GetClientIP(r))

	r.RemoteAddr = "192.0.2.11"
	assert.Equal(t, "192.0.2.11", GetClientIP(r))
}

func TestCreateSessionCookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	c := CreateSessionCookie(r, "sid", "v", time.Now().Add(time.Hour), false)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, CreateSessionCookie(r, "sid", "v", time.Now(), false).Secure)
	assert.True(t, CreateDeleteCookie(httptest.NewRequest("GET", "/", nil), "sid", true).Secure)
}
