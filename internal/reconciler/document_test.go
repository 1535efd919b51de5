package reconciler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullboard/gistsync/internal/paged"
)

func TestSync_RoundTripsWorkspaceAndPromptsDocuments(t *testing.T) {
	r1, gw := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r1, "b1", "Board 1", 1000, `{"id":"e1"}`)
	require.NoError(t, r1.local.PutWorkspace(ctx, []byte(`{"activeBoard":"b1"}`)))
	require.NoError(t, r1.local.PutPrompts(ctx, []byte(`{"general":[{"id":"p1"}]}`)))

	require.True(t, r1.Sync(ctx).Success())

	gistID := r1.cfg.GistID
	files, ok := gw.gists[gistID]
	require.True(t, ok)
	assert.Contains(t, files, workspaceFilename)
	assert.Contains(t, files, promptsFilename)

	r2, _ := newTestReconciler(t)
	r2.gateway = gw
	r2.cfg.GistID = gistID

	require.True(t, r2.Sync(ctx).Success())

	workspace, err := r2.local.GetWorkspace(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"activeBoard":"b1"}`, string(workspace))

	prompts, err := r2.local.GetPrompts(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"general":[{"id":"p1"}]}`, string(prompts))
}

func TestSync_LocalTaskDeletionIsNotResurrectedByStaleRemoteIndex(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	putBoard(t, r, "b1", "Board 1", 1000, `{"id":"e1"}`)

	page := paged.Page[TaskContent]{
		PageID:    "0",
		UpdatedAt: 1000,
		Items: []paged.Item[TaskContent]{
			{ID: "t1", Status: paged.StatusPending, CreatedAt: 1000, UpdatedAt: 1000, PageID: "0", Content: TaskContent{Payload: json.RawMessage(`{}`)}},
		},
	}
	require.NoError(t, r.tasks.local.WritePage(ctx, page))

	require.True(t, r.Sync(ctx).Success())

	m, err := r.currentManifest(ctx, r.cfg.GistID)
	require.NoError(t, err)
	assert.Empty(t, m.DeletedTasks)

	require.NoError(t, r.tasks.local.WritePage(ctx, paged.Page[TaskContent]{PageID: "0", UpdatedAt: 2000}))

	require.True(t, r.Sync(ctx).Success())

	m, err = r.currentManifest(ctx, r.cfg.GistID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, m.DeletedTasks)

	uploaded, downloaded, err := r.tasks.syncOne(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, downloaded)
	_ = uploaded

	items, err := r.tasks.local.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPagedCollectionSyncOne_MigratesLegacyTaskDocument(t *testing.T) {
	r, gw := newTestReconciler(t)
	r.cfg.GistID = "gist-1"
	gw.gists["gist-1"] = map[string]string{
		legacyTaskFilename: `{"completedTasks":[{"ID":"legacy-1","Status":"completed","CreatedAt":1000,"UpdatedAt":1000,"Content":{"payload":{}}}]}`,
	}

	ctx := context.Background()

	uploaded, downloaded, err := r.tasks.syncOne(ctx, r)
	require.NoError(t, err)
	assert.Zero(t, downloaded)
	assert.Equal(t, 1, uploaded)

	items, err := r.tasks.local.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "legacy-1", items[0].ID)
}
