package devicefp

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Obfuscate XORs passphrase against a repeating fingerprint keystream and
// base64-wraps the result, for at-rest storage alongside the sync config.
func Obfuscate(passphrase, fingerprint string) string {
	return base64.StdEncoding.EncodeToString(xor([]byte(norm.NFC.String(passphrase)), []byte(fingerprint)))
}

// Deobfuscate reverses Obfuscate. Returns an error if stored is not valid
// base64 — a corrupt or hand-edited value should fail loudly rather than
// silently producing a wrong passphrase.
func Deobfuscate(stored, fingerprint string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("devicefp: decoding obfuscated passphrase: %w", err)
	}

	return string(xor(raw, []byte(fingerprint))), nil
}

func xor(data, key []byte) []byte {
	if len(key) == 0 {
		return data
	}

	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}

	return out
}
