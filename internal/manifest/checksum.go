package manifest

import (
	"encoding/json"
	"hash/crc32"
	"sort"
)

// Checksum computes the 32-bit polynomial hash of the canonical JSON of a
// board's element list (spec.md §3.3(1)). elements must already be
// []any-decoded JSON values; canonicalization re-marshals with sorted map
// keys so the checksum is identical across devices regardless of original
// key order.
func Checksum(elements []any) (uint32, error) {
	canonical, err := canonicalize(elements)
	if err != nil {
		return 0, err
	}

	return crc32.ChecksumIEEE(canonical), nil
}

// canonicalize re-marshals v through an intermediate decode so Go's
// encoding/json (which always emits object keys in a stable, sorted order
// for map[string]any) produces byte-identical output for structurally
// identical input regardless of original key order.
func canonicalize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	return marshalSorted(decoded)
}

// marshalSorted is equivalent to json.Marshal except it explicitly sorts
// map keys — encoding/json already does this for map[string]any, but
// spelling it out here documents the invariant the checksum depends on.
func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		buf := []byte("{")

		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}

			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}

			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}

			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}

		return append(buf, '}'), nil

	case []any:
		buf := []byte("[")

		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}

			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}

			buf = append(buf, ib...)
		}

		return append(buf, ']'), nil

	default:
		return json.Marshal(val)
	}
}
