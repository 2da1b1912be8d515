// Package tokenx encodes and decodes signed session tokens. A single
// symmetric HMAC key signs both token kinds; kind and lifecycle semantics are
// the callers' responsibility so the same primitive serves access and
// refresh tokens alike.
package tokenx

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/covergate/sessiond/pkg/clockx"
)

var (
	// ErrMalformed covers every decode failure that is not plain expiry:
	// truncation, tampering, wrong key, structural problems.
	ErrMalformed = errors.New("tokenx: malformed token")

	// ErrExpired reports a structurally valid token past its exp claim.
	ErrExpired = errors.New("tokenx: token expired")
)

// MinKeyBytes is the smallest accepted HMAC key size. HS256 wants at least
// 256 bits of key material.
const MinKeyBytes = 32

// Codec signs and verifies compact token strings with one symmetric key.
// Encode and Decode are pure in-memory computations.
type Codec struct {
	key   []byte
	clock clockx.Clock
}

// NewCodec builds a Codec from a base64 (std encoding) HMAC secret. The
// clock is used for expiry validation during decode.
func NewCodec(secretBase64 string, clock clockx.Clock) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("tokenx: secret is not valid base64: %w", err)
	}
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("tokenx: secret must be at least %d bytes, got %d", MinKeyBytes, len(key))
	}
	if clock == nil {
		clock = clockx.System{}
	}

	return &Codec{key: key, clock: clock}, nil
}

// Encode serializes and signs the claims into a compact token string. It has
// no side effects.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("tokenx: signing failed: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structural well-formedness of a compact
// token string and returns its claims. Any signature or structural failure
// is reported as ErrMalformed; a valid-but-expired token as ErrExpired.
// Decode does not enforce token kind.
func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
