package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrNoKey       = errors.New("jwtx: signing key is empty")
)

// Codec issues and verifies HS256-signed, self-contained access tokens. It
// holds only immutable state after construction, so a single Codec is safe to
// share across request goroutines.
type Codec struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewCodec builds a Codec from the process-wide signing key. Key strength is
// the caller's concern (see app config validation); the codec only refuses an
// empty key.
func NewCodec(key []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(key) == 0 {
		return nil, ErrNoKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{key: key, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for the given user ID with an absolute expiry of
// now + TTL.
func (c *Codec) Issue(userID string, now time.Time) (string, error) {
	claims := NewClaims(userID, c.issuer, c.ttl, now.UTC())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// Verify checks signature integrity, issuer and expiry, returning the user ID
// from the subject claim. Any failure comes back as one of the typed errors
// above; the caller never sees a user ID from an invalid token.
func (c *Codec) Verify(tokenStr string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Claims are validated manually below so each failure maps to a
		// distinct sentinel.
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSig
		default:
			return "", ErrMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrMalformed
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return "", err
	}
	if err := claims.ValidateExpiry(now); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}

	return claims.Subject, nil
}
