package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// ivLength is the AES-GCM nonce size, fixed per spec.md §6.5 AES_IV_LEN.
const ivLength = 12

// Envelope encrypts and decrypts document JSON with a key derived from
// either a Gist ID or a user passphrase. A single Envelope should be
// shared by everything syncing against one Gist, so key derivation is
// memoized across calls.
type Envelope struct {
	keys *keyCache
}

// New creates an Envelope with an empty key cache.
func New() *Envelope {
	return &Envelope{keys: newKeyCache()}
}

// Encrypt wraps plaintext in an envelope JSON document. secret is the
// Gist ID when customPassword is false, or the user's passphrase when
// true; the envelope records which so Decrypt knows where to re-derive
// the key from.
func (e *Envelope) Encrypt(plaintext []byte, secret string, customPassword bool) ([]byte, error) {
	gcm, err := e.gcmFor(secret)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("crypto: generating iv: %w", err)
	}

	ciphertextAndTag := gcm.Seal(nil, iv, plaintext, nil)

	return encodeEnvelope(iv, ciphertextAndTag, customPassword)
}

// Decrypt authenticates and decrypts envelope JSON. gistID is used as the
// key secret unless the envelope's customPassword flag is set, in which
// case passphrase is used instead — if passphrase is empty in that case,
// Decrypt returns ErrNeedsPassword without attempting derivation.
func (e *Envelope) Decrypt(data []byte, gistID, passphrase string) ([]byte, error) {
	env, ok := isEnvelope(data)
	if !ok {
		return nil, fmt.Errorf("crypto: not an envelope: %w", ErrCorrupt)
	}

	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("crypto: unsupported envelope version %d: %w", env.Version, ErrCorrupt)
	}

	secret := gistID
	if env.CustomPassword {
		if passphrase == "" {
			return nil, ErrNeedsPassword
		}

		secret = passphrase
	}

	gcm, err := e.gcmFor(secret)
	if err != nil {
		return nil, err
	}

	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("crypto: decoding iv: %w", ErrCorrupt)
	}

	ciphertextAndTag, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("crypto: decoding data: %w", ErrCorrupt)
	}

	plaintext, err := gcm.Open(nil, iv, ciphertextAndTag, nil)
	if err != nil {
		if env.CustomPassword {
			return nil, ErrWrongPassword
		}

		return nil, fmt.Errorf("crypto: authentication failed: %w", ErrCorrupt)
	}

	return plaintext, nil
}

// DecryptOrPassthrough returns the original content unchanged when it does
// not parse as envelope JSON, enabling coexistence with legacy plaintext
// Gists during migration (spec.md §4.2).
func (e *Envelope) DecryptOrPassthrough(data []byte, gistID, passphrase string) ([]byte, error) {
	if _, ok := isEnvelope(data); !ok {
		return data, nil
	}

	return e.Decrypt(data, gistID, passphrase)
}

func (e *Envelope) gcmFor(secret string) (cipher.AEAD, error) {
	key := e.keys.derive(secret)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: constructing cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: constructing gcm: %w", err)
	}

	return gcm, nil
}
