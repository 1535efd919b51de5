package reconciler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deleteBoardRemotely(t *testing.T, r *Reconciler, ctx context.Context, id string) {
	t.Helper()

	m, err := r.currentManifest(ctx, r.cfg.GistID)
	require.NoError(t, err)

	m.MarkBoardTombstone(id, r.now(), r.deviceID)
	require.NoError(t, r.uploadManifest(ctx, r.cfg.GistID, m))
}

func TestGetDeletedItems_ListsOnlyTombstones(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r, "b1", "Board 1", 1000, `{"id":"e1"}`)
	putBoard(t, r, "b2", "Board 2", 1000, `{"id":"e1"}`)
	require.True(t, r.Sync(ctx).Success())

	deleteBoardRemotely(t, r, ctx, "b1")

	items, err := r.GetDeletedItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
}

func TestRestoreItem_ClearsTombstoneAndRestoresContent(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r, "b1", "Board 1", 1000, `{"id":"e1"}`)
	require.True(t, r.Sync(ctx).Success())

	deleteBoardRemotely(t, r, ctx, "b1")

	require.NoError(t, r.RestoreItem(ctx, "board", "b1"))

	m, err := r.currentManifest(ctx, r.cfg.GistID)
	require.NoError(t, err)
	assert.False(t, m.Boards["b1"].IsTombstone())
}

func TestPermanentlyDelete_RemovesManifestEntryAndFile(t *testing.T) {
	r, gw := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r, "b1", "Board 1", 1000, `{"id":"e1"}`)
	require.True(t, r.Sync(ctx).Success())

	deleteBoardRemotely(t, r, ctx, "b1")

	require.NoError(t, r.PermanentlyDelete(ctx, "board", "b1"))

	m, err := r.currentManifest(ctx, r.cfg.GistID)
	require.NoError(t, err)
	_, ok := m.Boards["b1"]
	assert.False(t, ok)

	_, ok = gw.gists[r.cfg.GistID][boardFilename("b1")]
	assert.False(t, ok)
}

func TestEmptyRecycleBin_RemovesEveryTombstone(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r, "b1", "Board 1", 1000, `{"id":"e1"}`)
	putBoard(t, r, "b2", "Board 2", 1000, `{"id":"e1"}`)
	require.True(t, r.Sync(ctx).Success())

	deleteBoardRemotely(t, r, ctx, "b1")
	deleteBoardRemotely(t, r, ctx, "b2")

	count, err := r.EmptyRecycleBin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := r.GetDeletedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
