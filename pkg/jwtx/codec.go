package jwtx

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the shortest HMAC secret NewHS256Codec accepts.
const MinSecretSize = 32

// HS256Codec signs and verifies tokens with a single shared HMAC-SHA256
// secret. Both the signer and the verifier run in this process, so there is
// no key distribution and no kid header.
type HS256Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var (
	_ Signer   = (*HS256Codec)(nil)
	_ Verifier = (*HS256Codec)(nil)
)

// CodecOption customises an HS256Codec.
type CodecOption func(*HS256Codec)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *HS256Codec) { c.now = now }
}

// NewHS256Codec returns a codec for secret. When issuer is non-empty,
// Verify rejects tokens minted for a different issuer.
func NewHS256Codec(secret []byte, issuer string, opts ...CodecOption) (*HS256Codec, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrWeakSecret
	}
	c := &HS256Codec{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateSecret returns MinSecretSize random bytes.
func GenerateSecret() ([]byte, error) {
	b := make([]byte, MinSecretSize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("jwtx: generate secret: %w", err)
	}
	return b, nil
}

// Sign encodes claims as header.payload.signature.
func (c *HS256Codec) Sign(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify checks the signature, the algorithm and that now is strictly before
// exp. Any decoding problem is reported as an error.
func (c *HS256Codec) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrMissingSubject
	}
	if claims.Type != TypeAccess && claims.Type != TypeRefresh {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
