package shard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateShards_DetectsOrphanAndMissingFile(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	gistID := "shard-gist"
	gw.gists[gistID] = map[string]string{
		shardManifestFilename: "{}",
		"orphan.json":         "{}",
	}
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: gistID, FileCount: 1}
	router.Index().FileIndex["https://x/missing.png"] = FileIndexEntry{ShardID: "shard-0", Filename: "missing.json"}

	report, err := syncer.ValidateShards(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report.MissingFile, "shard-0/missing.json")
	assert.Contains(t, report.OrphanFile, "shard-0/orphan.json")
}

func TestValidateShards_ReportsMissingGist(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: "does-not-exist"}

	report, err := syncer.ValidateShards(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.MissingGist, "shard-0")
}

func TestRepairOrphanFiles_RecoversFromFileBody(t *testing.T) {
	gw := newFakeGateway()
	router, syncer := newTestSyncer(gw)

	gistID := "shard-gist"
	gw.gists[gistID] = map[string]string{
		"orphan.json": `{"url":"https://x/1.png","type":"image","size":42}`,
	}
	router.Index().Shards["shard-0"] = Info{Alias: "shard-0", GistID: gistID}

	err := syncer.RepairOrphanFiles(context.Background(), "shard-0", []string{"orphan.json"})
	require.NoError(t, err)

	entry, ok := router.Index().FileIndex["https://x/1.png"]
	require.True(t, ok)
	assert.Equal(t, int64(42), entry.Size)
}
