package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	iss := NewIssuer("secret", "taskboard", time.Hour)

	tok, err := iss.Sign("alice", "https://avatars.example/alice.png")
	require.NoError(t, err)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "github|alice", claims.Subject)
	assert.Equal(t, "alice", claims.UserID())
	assert.Equal(t, "https://avatars.example/alice.png", claims.Avatar)
	assert.Equal(t, "taskboard", claims.Issuer)
}

func TestVerify_Rejects(t *testing.T) {
	iss := NewIssuer("secret", "taskboard", time.Minute)
	tok, err := iss.Sign("gitlab|bob", "")
	require.NoError(t, err)

	_, err = NewIssuer("other", "taskboard", time.Minute).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	expired := NewIssuer("secret", "taskboard", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = iss.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "github|eve"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")
}

func TestSign_EmptySubject(t *testing.T) {
	_, err := NewIssuer("secret", "", 0).Sign("  ", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"github|12345", "12345"},
		{"google-oauth2|abc", "abc"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSubject(tt.in), tt.in)
	}
}

func TestParseUnverified(t *testing.T) {
	tok, err := NewIssuer("server-only", "taskboard", 0).Sign("github|carol", "a.png")
	require.NoError(t, err)

	claims, err := ParseUnverified(tok)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.UserID())
	assert.Equal(t, "a.png", claims.Avatar)

	_, err = ParseUnverified("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
