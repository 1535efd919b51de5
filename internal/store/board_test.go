package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_PutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := BoardRecord{ID: "b1", Name: "Board 1", Data: []byte(`{"elements":[]}`), UpdatedAt: 1000}
	require.NoError(t, s.PutBoard(ctx, rec))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Data, got.Data)
	assert.Zero(t, got.DeletedAt)
}

func TestBoard_SoftDeleteExcludesFromListBoards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBoard(ctx, BoardRecord{ID: "b1", Name: "Board 1", Data: []byte("{}"), UpdatedAt: 1000}))
	require.NoError(t, s.SoftDeleteBoard(ctx, "b1", 2000))

	live, err := s.ListBoards(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)

	tombstoned, err := s.ListTombstonedBoards(ctx)
	require.NoError(t, err)
	require.Len(t, tombstoned, 1)
	assert.Equal(t, int64(2000), tombstoned[0].DeletedAt)
}

func TestBoard_SoftDeleteMissingBoardErrors(t *testing.T) {
	s := openTestStore(t)
	err := s.SoftDeleteBoard(context.Background(), "missing", 1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoard_HardDeleteRemovesRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBoard(ctx, BoardRecord{ID: "b1", Name: "Board 1", Data: []byte("{}"), UpdatedAt: 1000}))
	require.NoError(t, s.HardDeleteBoard(ctx, "b1"))

	_, err := s.GetBoard(ctx, "b1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoard_PutUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutBoard(ctx, BoardRecord{ID: "b1", Name: "Board 1", Data: []byte("{}"), UpdatedAt: 1000}))
	require.NoError(t, s.PutBoard(ctx, BoardRecord{ID: "b1", Name: "Renamed", Data: []byte(`{"x":1}`), UpdatedAt: 2000}))

	got, err := s.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(2000), got.UpdatedAt)
}
