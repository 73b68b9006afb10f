package security

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionTokenSigner wraps opaque session ids in HS256 tokens so forged or
// tampered cookies are rejected before touching the session store.
// Expiry is decided server-side; the token carries no exp claim.
type SessionTokenSigner struct {
	secret []byte
}

// NewSessionTokenSigner creates a signer for the given secret
func NewSessionTokenSigner(secret string) *SessionTokenSigner {
	return &SessionTokenSigner{secret: []byte(secret)}
}

// Sign returns a token binding sessionID to userID
func (s *SessionTokenSigner) Sign(sessionID string, userID int64, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       sessionID,
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: jwt.NewNumericDate(issuedAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SessionID verifies tokenString and returns the session id it carries
func (s *SessionTokenSigner) SessionID(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(claims.ID) == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
