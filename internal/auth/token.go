/**
 * @description
 * This package implements the signed bearer token codec for the
 * payment-service. There is no server-side session store: the token carries
 * the full identity claims and the signature plus expiry are the only thing
 * verified on each request.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: JWT signing and parsing.
 * - github.com/google/uuid: For the user id claim.
 */

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("token invalid")
)

// IdentityClaims is the identity embedded in every issued token. It is the
// minimal set of fields handlers need, so no user lookup happens on
// authenticated reads.
type IdentityClaims struct {
	UserID    uuid.UUID       `json:"user_id"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	jwt.RegisteredClaims
}

// Codec issues and verifies identity tokens with a shared HMAC secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a token codec for the given signing secret and token
// lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue serializes the claims into a signed token expiring after the
// codec's configured TTL.
func (c *Codec) Issue(claims IdentityClaims) (string, error) {
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// embedded claims. Expired tokens report ErrTokenExpired; everything else
// that fails verification reports ErrTokenInvalid.
func (c *Codec) Verify(tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
