package reconciler

import (
	"encoding/json"
	"fmt"

	"github.com/nullboard/gistsync/internal/manifest"
	"github.com/nullboard/gistsync/internal/store"
)

// boardDoc is the full board document stored at board_{id}.json (spec.md
// §3.1, §6.3). Viewport and Theme are passed through as raw JSON since the
// reconciler never inspects them — it compares and merges Elements only.
type boardDoc struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	FolderID  string            `json:"folderId,omitempty"`
	Order     int               `json:"order"`
	Viewport  json.RawMessage   `json:"viewport,omitempty"`
	Theme     json.RawMessage   `json:"theme,omitempty"`
	CreatedAt int64             `json:"createdAt"`
	UpdatedAt int64             `json:"updatedAt"`
	Elements  []json.RawMessage `json:"elements"`
}

func decodeBoard(data []byte) (*boardDoc, error) {
	var b boardDoc
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("reconciler: decoding board: %w", err)
	}

	return &b, nil
}

func encodeBoard(b *boardDoc) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("reconciler: encoding board %s: %w", b.ID, err)
	}

	return data, nil
}

// elementID extracts the "id" field from an opaque board element. Elements
// are otherwise treated as spec-opaque JSON (spec.md §3.1).
func elementID(raw json.RawMessage) (string, error) {
	var head struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("reconciler: element missing id: %w", err)
	}

	if head.ID == "" {
		return "", fmt.Errorf("reconciler: element has empty id")
	}

	return head.ID, nil
}

// checksumBoard computes a board's content checksum over its elements
// using manifest.Checksum, so board comparison reuses the same canonical
// hashing the manifest already relies on (spec.md §4.1.1 "checksum = crc32
// over canonicalized elements").
func checksumBoard(b *boardDoc) (uint32, error) {
	decoded := make([]any, 0, len(b.Elements))

	for _, raw := range b.Elements {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, fmt.Errorf("reconciler: decoding element for checksum: %w", err)
		}

		decoded = append(decoded, v)
	}

	sum, err := manifest.Checksum(decoded)
	if err != nil {
		return 0, fmt.Errorf("reconciler: checksumming board %s: %w", b.ID, err)
	}

	return sum, nil
}

// checksumElement hashes a single element the same way checksumBoard
// hashes a whole board, letting mergeBoards compare individual elements
// without duplicating manifest's canonicalization logic.
func checksumElement(raw json.RawMessage) (uint32, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("reconciler: decoding element: %w", err)
	}

	sum, err := manifest.Checksum([]any{v})
	if err != nil {
		return 0, fmt.Errorf("reconciler: checksumming element: %w", err)
	}

	return sum, nil
}

// localBoardEmpty reports whether a local board record carries no content
// worth protecting, used by the first-sync classification (spec.md
// §4.1.2: "local empty -> download").
func localBoardEmpty(rec store.BoardRecord) bool {
	if len(rec.Data) == 0 {
		return true
	}

	b, err := decodeBoard(rec.Data)
	if err != nil {
		return true
	}

	return len(b.Elements) == 0
}
