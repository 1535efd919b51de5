package reconciler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullboard/gistsync/internal/store"
)

func TestDecodeEncodeBoard_RoundTrip(t *testing.T) {
	b := &boardDoc{ID: "b1", Name: "Board", UpdatedAt: 123, Elements: []json.RawMessage{[]byte(`{"id":"e1"}`)}}

	data, err := encodeBoard(b)
	require.NoError(t, err)

	decoded, err := decodeBoard(data)
	require.NoError(t, err)
	assert.Equal(t, b.ID, decoded.ID)
	assert.Equal(t, b.Name, decoded.Name)
	assert.Len(t, decoded.Elements, 1)
}

func TestElementID_MissingIDIsError(t *testing.T) {
	_, err := elementID([]byte(`{"x":1}`))
	assert.Error(t, err)
}

func TestElementID_ReturnsID(t *testing.T) {
	id, err := elementID([]byte(`{"id":"e1","x":1}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", id)
}

func TestChecksumBoard_SameContentSameChecksum(t *testing.T) {
	b1 := &boardDoc{ID: "b1", Elements: []json.RawMessage{[]byte(`{"id":"e1","x":1}`)}}
	b2 := &boardDoc{ID: "b1", Elements: []json.RawMessage{[]byte(`{"x":1,"id":"e1"}`)}}

	sum1, err := checksumBoard(b1)
	require.NoError(t, err)
	sum2, err := checksumBoard(b2)
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
}

func TestChecksumBoard_DifferentContentDifferentChecksum(t *testing.T) {
	b1 := &boardDoc{ID: "b1", Elements: []json.RawMessage{[]byte(`{"id":"e1","x":1}`)}}
	b2 := &boardDoc{ID: "b1", Elements: []json.RawMessage{[]byte(`{"id":"e1","x":2}`)}}

	sum1, err := checksumBoard(b1)
	require.NoError(t, err)
	sum2, err := checksumBoard(b2)
	require.NoError(t, err)

	assert.NotEqual(t, sum1, sum2)
}

func TestLocalBoardEmpty_NoDataIsEmpty(t *testing.T) {
	assert.True(t, localBoardEmpty(store.BoardRecord{}))
}

func TestLocalBoardEmpty_NoElementsIsEmpty(t *testing.T) {
	data, err := encodeBoard(&boardDoc{ID: "b1"})
	require.NoError(t, err)

	assert.True(t, localBoardEmpty(store.BoardRecord{Data: data}))
}

func TestLocalBoardEmpty_WithElementsIsNotEmpty(t *testing.T) {
	data, err := encodeBoard(&boardDoc{ID: "b1", Elements: []json.RawMessage{[]byte(`{"id":"e1"}`)}})
	require.NoError(t, err)

	assert.False(t, localBoardEmpty(store.BoardRecord{Data: data}))
}
