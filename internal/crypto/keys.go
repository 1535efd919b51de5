package crypto

import (
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// fixedSalt is the PBKDF2 salt, fixed per spec.md §4.2 — the secret itself
// (Gist ID or passphrase) supplies the entropy, not the salt.
var fixedSalt = []byte("gistsync-envelope-v2-salt")

const (
	pbkdf2Iterations = 100_000
	aesKeyLength     = 32 // 256-bit AES-GCM key
)

// keyCache memoizes derived keys per-process, keyed by secret. Key
// derivation is expensive by design (100,000 PBKDF2 rounds); every
// encrypt/decrypt call for the same secret should pay that cost once.
type keyCache struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func newKeyCache() *keyCache {
	return &keyCache{keys: make(map[string][]byte)}
}

func (c *keyCache) derive(secret string) []byte {
	normalized := norm.NFC.String(secret)

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[normalized]; ok {
		return key
	}

	key := pbkdf2.Key([]byte(normalized), fixedSalt, pbkdf2Iterations, aesKeyLength, sha256.New)
	c.keys[normalized] = key

	return key
}
