package shard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyncer(gw *fakeGateway) (*Router, *Syncer) {
	router := NewRouter(gw, passthroughSealer{}, "master-1", nil, "", false, fixedNow(1000))
	syncer := NewSyncer(router, gw, "device-1", 2, fixedNow(1000))

	return router, syncer
}

func TestUploadMedia_RegistersSuccessfulUploads(t *testing.T) {
	gw := newFakeGateway()
	_, syncer := newTestSyncer(gw)

	items := []MediaItem{
		{URL: "https://x/1.png", Type: "image", Size: 100, Base64Data: "AAAA"},
		{URL: "https://x/2.png", Type: "image", Size: 100, Base64Data: "BBBB"},
	}

	results, err := syncer.UploadMedia(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.True(t, r.Success)
	}

	assert.Len(t, syncer.router.Index().FileIndex, 2)
}

func TestUploadMedia_SkipsAlreadySynced(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)
	router.Index().FileIndex["https://x/1.png"] = FileIndexEntry{ShardID: "shard-0", Filename: "f"}

	results, err := syncer.UploadMedia(context.Background(), []MediaItem{
		{URL: "https://x/1.png", Size: 10, Base64Data: "AAAA"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUploadMedia_PartialShardFailureReportsError(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	// preallocate a shard and mark its gist as always-failing.
	info, err := router.AllocateFile(context.Background(), 10)
	require.NoError(t, err)
	gw.failing[info.GistID] = true

	results, err := syncer.uploadToShard(context.Background(), info, []MediaItem{
		{URL: "https://x/1.png", Size: 10, Base64Data: "AAAA"},
	})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Empty(t, router.Index().FileIndex)
}

func TestSoftDeleteMedia_MovesToTombstones(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", FileCount: 1}
	router.Index().FileIndex["https://x/1.png"] = FileIndexEntry{ShardID: "shard-0", Filename: "f", Size: 10}

	syncer.SoftDeleteMedia([]string{"https://x/1.png"}, "device-1")

	assert.Empty(t, router.Index().FileIndex)
	require.Len(t, router.Index().Tombstones, 1)
	assert.Equal(t, "https://x/1.png", router.Index().Tombstones[0].URL)
}

func TestRestoreMedia_ReRegistersWhenFilePresent(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	gistID := "shard-gist"
	gw.gists[gistID] = map[string]string{"f": "{}"}
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: gistID}
	router.Index().Tombstones = []Tombstone{{URL: "https://x/1.png", ShardID: "shard-0", Filename: "f", Size: 10, DeletedAt: 500}}

	err := syncer.RestoreMedia(context.Background(), "https://x/1.png")
	require.NoError(t, err)

	assert.Contains(t, router.Index().FileIndex, "https://x/1.png")
	assert.Empty(t, router.Index().Tombstones)
}

func TestRestoreMedia_ErrorsWhenFileGone(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	gistID := "shard-gist"
	gw.gists[gistID] = map[string]string{}
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: gistID}
	router.Index().Tombstones = []Tombstone{{URL: "https://x/1.png", ShardID: "shard-0", Filename: "f"}}

	err := syncer.RestoreMedia(context.Background(), "https://x/1.png")
	assert.Error(t, err)
}

func TestCleanupExpiredTombstones_DeletesOnlyExpired(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	gistID := "shard-gist"
	gw.gists[gistID] = map[string]string{"old.json": "{}", "new.json": "{}"}
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: gistID}
	router.Index().Tombstones = []Tombstone{
		{URL: "old", ShardID: "shard-0", Filename: "old.json", DeletedAt: 0},
		{URL: "new", ShardID: "shard-0", Filename: "new.json", DeletedAt: 999},
	}

	err := syncer.CleanupExpiredTombstones(context.Background(), 30*24*3600)
	require.NoError(t, err)

	require.Len(t, router.Index().Tombstones, 1)
	assert.Equal(t, "new", router.Index().Tombstones[0].URL)
	assert.NotContains(t, gw.gists[gistID], "old.json")
	assert.Contains(t, gw.gists[gistID], "new.json")
}

func TestBatchMediaItems_SplitsAboveLimit(t *testing.T) {
	big := make([]byte, requestBatchMaxBytes-100)
	for i := range big {
		big[i] = 'x'
	}

	items := []MediaItem{
		{URL: "1", Base64Data: string(big)},
		{URL: "2", Base64Data: string(big)},
	}

	batches := batchMediaItems(items)
	assert.Len(t, batches, 2)
}

func TestBatchMediaItems_SingleBatchWhenSmall(t *testing.T) {
	items := []MediaItem{{URL: "1", Base64Data: "aaa"}, {URL: "2", Base64Data: "bbb"}}
	batches := batchMediaItems(items)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}
