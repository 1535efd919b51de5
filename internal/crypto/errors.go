// Package crypto implements envelope encryption for documents synced
// through the remote gateway: AES-256-GCM with a key derived via PBKDF2,
// tolerant of legacy plaintext content.
package crypto

import "errors"

// Sentinel errors for envelope decryption failures.
// Use errors.Is(err, crypto.ErrNeedsPassword) to check.
var (
	ErrNeedsPassword = errors.New("crypto: envelope requires a passphrase")
	ErrWrongPassword = errors.New("crypto: decryption failed under supplied passphrase")
	ErrCorrupt       = errors.New("crypto: envelope is malformed or corrupt")
)
