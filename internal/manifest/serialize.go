package manifest

import (
	"encoding/json"
	"fmt"
)

// Serialize encodes m as canonical JSON for upload.
func Serialize(m *Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: encoding: %w", err)
	}

	return data, nil
}

// Parse decodes manifest JSON fetched from the remote gateway.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decoding: %w", err)
	}

	if m.Boards == nil {
		m.Boards = make(map[string]BoardSyncInfo)
	}

	if m.Devices == nil {
		m.Devices = make(map[string]Device)
	}

	return &m, nil
}

// Compare reports whether two manifests are equivalent for sync-skip
// purposes: same boards, same checksums, same tombstone state. Timestamps
// and device registries are ignored — those change on every round without
// representing a content difference.
func Compare(a, b *Manifest) bool {
	if len(a.Boards) != len(b.Boards) {
		return false
	}

	for id, infoA := range a.Boards {
		infoB, ok := b.Boards[id]
		if !ok {
			return false
		}

		if infoA.Checksum != infoB.Checksum || infoA.IsTombstone() != infoB.IsTombstone() {
			return false
		}
	}

	return true
}
