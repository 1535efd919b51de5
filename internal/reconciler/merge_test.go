package reconciler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawElement(t *testing.T, id string, x int) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(map[string]any{"id": id, "x": x})
	require.NoError(t, err)

	return data
}

func TestMergeBoards_UnionsByElementID(t *testing.T) {
	local := &boardDoc{
		ID:        "b1",
		UpdatedAt: 100,
		Elements:  []json.RawMessage{rawElement(t, "e1", 1)},
	}
	remote := &boardDoc{
		ID:        "b1",
		UpdatedAt: 90,
		Elements:  []json.RawMessage{rawElement(t, "e2", 2)},
	}

	merged, conflicts, err := mergeBoards(local, remote)

	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Len(t, merged.Elements, 2)
}

func TestMergeBoards_LocalWinsOnContentMismatch(t *testing.T) {
	local := &boardDoc{
		ID:        "b1",
		UpdatedAt: 100,
		Elements:  []json.RawMessage{rawElement(t, "e1", 1)},
	}
	remote := &boardDoc{
		ID:        "b1",
		UpdatedAt: 90,
		Elements:  []json.RawMessage{rawElement(t, "e1", 2)},
	}

	merged, conflicts, err := mergeBoards(local, remote)

	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, conflicts)
	require.Len(t, merged.Elements, 1)

	id, err := elementID(merged.Elements[0])
	require.NoError(t, err)
	assert.Equal(t, "e1", id)

	sum, err := checksumElement(merged.Elements[0])
	require.NoError(t, err)

	localSum, err := checksumElement(local.Elements[0])
	require.NoError(t, err)
	assert.Equal(t, localSum, sum)
}

func TestMergeBoards_IdenticalElementIsNotAConflict(t *testing.T) {
	el := rawElement(t, "e1", 1)
	local := &boardDoc{ID: "b1", UpdatedAt: 100, Elements: []json.RawMessage{el}}
	remote := &boardDoc{ID: "b1", UpdatedAt: 90, Elements: []json.RawMessage{el}}

	_, conflicts, err := mergeBoards(local, remote)

	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestMergeBoards_UpdatedAtIsMaxOfBoth(t *testing.T) {
	local := &boardDoc{ID: "b1", UpdatedAt: 100}
	remote := &boardDoc{ID: "b1", UpdatedAt: 200}

	merged, _, err := mergeBoards(local, remote)

	require.NoError(t, err)
	assert.Equal(t, int64(200), merged.UpdatedAt)
}
