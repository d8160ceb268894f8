// Package auth mints and checks the bearer tokens the sync endpoint accepts.
// Tokens are HS256 JWTs whose subject is "<provider>|<id>".
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail parsing or verification
var ErrInvalidToken = errors.New("invalid token")

// DefaultProvider prefixes subjects minted without an explicit provider
const DefaultProvider = "github"

// Claims represents the JWT claims
type Claims struct {
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the normalized subject
func (c *Claims) UserID() string {
	return NormalizeSubject(c.Subject)
}

// Issuer signs and verifies tokens with a shared secret
type Issuer struct {
	secret []byte
	name   string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A zero ttl mints tokens without expiry.
func NewIssuer(secret, name string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), name: name, ttl: ttl, now: time.Now}
}

// Sign mints a token for subject. A subject without a provider prefix gets DefaultProvider.
func (i *Issuer) Sign(subject, avatar string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if !strings.Contains(subject, "|") {
		subject = DefaultProvider + "|" + subject
	}

	now := i.now()
	claims := &Claims{
		Avatar: avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.name,
			Subject:   subject,
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and time claims and returns the claims
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// NormalizeSubject strips the provider prefix: "github|42" becomes "42"
func NormalizeSubject(sub string) string {
	if idx := strings.LastIndex(sub, "|"); idx >= 0 {
		return sub[idx+1:]
	}
	return sub
}

// ParseUnverified reads the claims of a token without checking its signature.
// Clients use it to learn who a token was issued to; only the server verifies.
func ParseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
