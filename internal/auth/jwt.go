// Package auth provides session tokens, password hashing and the HTTP gate
// that protects note routes.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs /create-account or /login with email + password
//  2. Server verifies the password (bcrypt) and issues a signed JWT
//  3. Client sends it back on every protected call as
//     "Authorization: Bearer <token>"
//  4. RequireAuth validates the JWT and puts the Claims in the request
//     context; handlers read the caller's user id from there
//
// The token is stateless: nothing is stored server-side, it is never
// refreshed, and it stays valid until it expires.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<userID>","iss":"notes-api","exp":...,"iat":...,"jti":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// The payload carries the user id only. Profile fields are re-read from the
// store when needed, so no credential data ever travels inside a token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is written to and required in every token's "iss" claim.
	Issuer = "notes-api"

	// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
	MinSecretLength = 16

	// DefaultTokenTTL matches the lifetime the web client has always relied
	// on: 36000 minutes (25 days).
	DefaultTokenTTL = 36000 * time.Minute
)

// ErrInvalidToken is wrapped by every Validate failure. Callers only need to
// check for it; the wrapped detail is for server-side logs.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the verified identity carried by a session token.
type Claims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens and the default
// lifetime of issued tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. A missing or short secret is a startup error, never a
// per-request one.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: token secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime applied by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates and signs a token for userID using the configured lifetime.
func (s *TokenService) Issue(userID string) (string, error) {
	return s.IssueWithDuration(userID, s.ttl)
}

// IssueWithDuration creates a token with a custom lifetime. A negative
// duration produces an already-expired token, which the tests rely on.
func (s *TokenService) IssueWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}

	now := time.Now()
	c := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid for our secret
//   - Algorithm is HS256 (blocks "none" and algorithm-confusion tokens)
//   - Issuer is "notes-api"
//   - "exp" is present and in the future
//
// Every failure wraps ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	var rc jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&rc,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if rc.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	c := &Claims{
		UserID:  rc.Subject,
		TokenID: rc.ID,
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}

	return c, nil
}
