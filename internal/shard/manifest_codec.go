package shard

import (
	"encoding/json"
	"fmt"
)

// serializeManifest encodes and encrypts a shard manifest for upload.
// Shard manifests are encrypted per spec.md's file format table (unlike
// media files, which stay plaintext).
func serializeManifest(sealer Sealer, m *Manifest, gistID, passphrase string, customPassword bool) ([]byte, error) {
	plaintext, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("shard: encoding manifest: %w", err)
	}

	secret := gistID
	if customPassword {
		secret = passphrase
	}

	return sealer.Encrypt(plaintext, secret, customPassword)
}

// parseManifest decrypts (or passes through legacy plaintext) and
// decodes a shard manifest.
func parseManifest(sealer Sealer, data []byte, gistID, passphrase string) (*Manifest, error) {
	plaintext, err := sealer.DecryptOrPassthrough(data, gistID, passphrase)
	if err != nil {
		return nil, fmt.Errorf("shard: decrypting manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, fmt.Errorf("shard: decoding manifest: %w", err)
	}

	if m.Files == nil {
		m.Files = make(map[string]SyncedMediaMeta)
	}

	return &m, nil
}
