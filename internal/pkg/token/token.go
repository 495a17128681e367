package token

import (
	"crypto/rand"
	"fmt"
)

// NewSecret returns n cryptographically random bytes, used as a process-local
// key when no shared secret is configured.
func NewSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}
