package cryptox

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

// SecretSize160 gives 160 bits of entropy, the conventional size for
// one-time-code secrets.
const SecretSize160 = 20

// GenerateSecret creates a cryptographically random secret of the given byte
// length, base32 encoded without padding so it can feed OTP derivation
// directly.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}

	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
