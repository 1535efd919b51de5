package shard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFile_CreatesShardWhenNoneExist(t *testing.T) {
	gw := newFakeGateway()
	router := NewRouter(gw, passthroughSealer{}, "master-1", nil, "", false, fixedNow(1000))

	info, err := router.AllocateFile(context.Background(), 1024)
	require.NoError(t, err)

	assert.Equal(t, "shard-0", info.Alias)
	assert.Equal(t, StatusActive, info.Status)
	assert.Len(t, router.Index().Shards, 1)
}

func TestAllocateFile_PrefersFullestWithCapacity(t *testing.T) {
	gw := newFakeGateway()
	index := NewMasterIndex()
	index.Shards["shard-0"] = Info{Alias: "shard-0", GistID: "g0", Status: StatusActive, FileCount: 5}
	index.Shards["shard-1"] = Info{Alias: "shard-1", GistID: "g1", Status: StatusActive, FileCount: 50}

	router := NewRouter(gw, passthroughSealer{}, "master-1", index, "", false, fixedNow(1000))

	info, err := router.AllocateFile(context.Background(), 1024)
	require.NoError(t, err)

	assert.Equal(t, "shard-1", info.Alias)
}

func TestAllocateFile_CreatesNewShardWhenAllFull(t *testing.T) {
	gw := newFakeGateway()
	index := NewMasterIndex()
	index.Shards["shard-0"] = Info{Alias: "shard-0", GistID: "g0", Status: StatusFull, FileCount: FileLimit}

	router := NewRouter(gw, passthroughSealer{}, "master-1", index, "", false, fixedNow(1000))

	info, err := router.AllocateFile(context.Background(), 1024)
	require.NoError(t, err)

	assert.NotEqual(t, "shard-0", info.Alias)
	assert.Len(t, router.Index().Shards, 2)
}

func TestAllocateFiles_SpawnsShardsAsNeeded(t *testing.T) {
	gw := newFakeGateway()
	router := NewRouter(gw, passthroughSealer{}, "master-1", nil, "", false, fixedNow(1000))

	var reqs []AllocationRequest
	for i := 0; i < 250; i++ {
		reqs = append(reqs, AllocationRequest{URL: string(rune('a' + i%26)) + string(rune(i)), Size: 400 * 1024})
	}

	assignments, created, err := router.AllocateFiles(context.Background(), reqs)
	require.NoError(t, err)
	assert.Len(t, assignments, 250)
	assert.Greater(t, len(created), 1, "250 items must spill across more than one shard")

	counts := make(map[string]int)
	for _, info := range assignments {
		counts[info.Alias]++
	}

	for alias, count := range counts {
		assert.LessOrEqual(t, count, FileLimit, "shard %s exceeded SHARD_FILE_LIMIT within a single batch", alias)
	}
}

func TestRegisterFile_TransitionsShardToFull(t *testing.T) {
	gw := newFakeGateway()
	index := NewMasterIndex()
	index.Shards["shard-0"] = Info{Alias: "shard-0", GistID: "g0", Status: StatusActive, FileCount: FileLimit - 1}

	router := NewRouter(gw, passthroughSealer{}, "master-1", index, "", false, fixedNow(1000))
	router.RegisterFile("url-1", "shard-0", FileIndexEntry{ShardID: "shard-0", Filename: "f", Size: 10})

	assert.Equal(t, StatusFull, router.Index().Shards["shard-0"].Status)
	assert.Equal(t, FileLimit, router.Index().Shards["shard-0"].FileCount)
}

func TestUnregisterFile_TransitionsShardBackToActive(t *testing.T) {
	gw := newFakeGateway()
	index := NewMasterIndex()
	index.Shards["shard-0"] = Info{Alias: "shard-0", GistID: "g0", Status: StatusFull, FileCount: FileLimit}
	index.FileIndex["url-1"] = FileIndexEntry{ShardID: "shard-0", Filename: "f", Size: 10}

	router := NewRouter(gw, passthroughSealer{}, "master-1", index, "", false, fixedNow(1000))
	router.UnregisterFile("url-1")

	assert.Equal(t, StatusActive, router.Index().Shards["shard-0"].Status)
	assert.Equal(t, FileLimit-1, router.Index().Shards["shard-0"].FileCount)
	assert.NotContains(t, router.Index().FileIndex, "url-1")
}
