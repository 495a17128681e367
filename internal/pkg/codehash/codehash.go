package codehash

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hasher digests one-time codes with a keyed BLAKE2b-256 so that stores never
// hold a plaintext code. Every instance sharing a store must share the key.
type Hasher struct {
	key []byte
}

// New returns a Hasher keyed with key. BLAKE2b accepts keys up to 64 bytes;
// longer keys are truncated.
func New(key []byte) *Hasher {
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return &Hasher{key: append([]byte(nil), key...)}
}

// Digest returns the hex digest of code.
func (h *Hasher) Digest(code string) string {
	m, err := blake2b.New256(h.key)
	if err != nil {
		// only reachable with a key longer than 64 bytes, which New prevents
		panic(err)
	}
	m.Write([]byte(code))
	return hex.EncodeToString(m.Sum(nil))
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
