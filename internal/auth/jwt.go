// Package auth issues and checks the session tokens of the HTTP API, and
// hashes the passwords of registered principals.
//
// SESSION FLOW:
//  1. POST /api/auth/login (or /register) succeeds in the identity store
//  2. The handler issues a JWT whose subject is the principal's ID and sets
//     it as the HttpOnly "token" cookie
//  3. RequireAuth validates the cookie on every protected route and puts the
//     principal ID in the request context
//  4. POST /api/auth/logout clears the cookie
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<principal id>","iss":"taskboard","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into every token and required when validating.
const Issuer = "taskboard"

// DefaultTokenTTL is used when NewTokenService is given a non-positive TTL.
const DefaultTokenTTL = 24 * time.Hour

// TokenService signs and validates session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for principalID valid for the service's TTL.
func (s *TokenService) Generate(principalID string) (string, error) {
	return s.GenerateWithDuration(principalID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative
// duration yields an already-expired token, which tests use.
func (s *TokenService) GenerateWithDuration(principalID string, d time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   principalID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    Issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, algorithm and expiry, and returns the
// principal ID from the "sub" claim.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, a token with "alg":"none" might be accepted.
// jwt.WithValidMethods rejects anything but HS256.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
