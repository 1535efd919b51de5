package paged

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	Body string `json:"body"`
}

func items(n int, bodySize int) []Item[fakeContent] {
	out := make([]Item[fakeContent], 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Item[fakeContent]{
			ID:        string(rune('a' + i)),
			Type:      "task",
			Status:    StatusPending,
			CreatedAt: int64(i),
			UpdatedAt: int64(i),
			Content:   fakeContent{Body: strings.Repeat("x", bodySize)},
		})
	}
	return out
}

func TestBuildLayout_RespectsMaxItems(t *testing.T) {
	in := items(5, 10)

	pages, index, err := BuildLayout(in, 2, 1_000_000, 1234)
	require.NoError(t, err)

	assert.Len(t, pages, 3) // 2, 2, 1
	assert.Len(t, index.Items, 5)
	assert.Len(t, index.Pages, 3)

	for _, p := range pages {
		assert.LessOrEqual(t, len(p.Items), 2)
	}
}

func TestBuildLayout_RespectsMaxBytes(t *testing.T) {
	in := items(3, 100)

	// each item's marshaled content is > 100 bytes with the json wrapper;
	// cap low enough that only one item fits per page.
	pages, _, err := BuildLayout(in, 500, 120, 1234)
	require.NoError(t, err)

	assert.Len(t, pages, 3)
	for _, p := range pages {
		assert.Len(t, p.Items, 1)
	}
}

func TestBuildLayout_SinglePageWhenWithinLimits(t *testing.T) {
	in := items(3, 10)

	pages, index, err := BuildLayout(in, 500, 1_000_000, 1234)
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Len(t, pages[0].Items, 3)
	assert.Equal(t, pages[0].PageID, index.Pages[0].PageID)
}

func TestBuildLayout_EmptyInput(t *testing.T) {
	pages, index, err := BuildLayout([]Item[fakeContent]{}, 500, 1_000_000, 1234)
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, index.Items)
	assert.Empty(t, index.Pages)
}

func TestBuildLayout_AssignsPageIDToItems(t *testing.T) {
	in := items(4, 10)

	pages, index, err := BuildLayout(in, 2, 1_000_000, 1234)
	require.NoError(t, err)

	for _, p := range pages {
		for _, item := range p.Items {
			assert.Equal(t, p.PageID, item.PageID)
		}
	}

	for _, entry := range index.Items {
		found := false
		for _, pi := range index.Pages {
			if pi.PageID == entry.PageID {
				found = true
			}
		}
		assert.True(t, found, "index entry references a known page")
	}
}

func entry(id, pageID string, status Status, updatedAt, syncVersion int64) IndexEntry {
	return IndexEntry{ID: id, PageID: pageID, Status: status, UpdatedAt: updatedAt, SyncVersion: syncVersion}
}

func TestCompareIndexes_RemoteAbsentUploads(t *testing.T) {
	local := Index{Items: []IndexEntry{entry("1", "p1", StatusPending, 100, 1)}}
	remote := Index{}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.ToUpload)
	assert.True(t, delta.PagesToUpload["p1"])
	assert.Empty(t, delta.ToDownload)
}

func TestCompareIndexes_TerminalSameVersionSkipped(t *testing.T) {
	local := Index{Items: []IndexEntry{entry("1", "p1", StatusCompleted, 100, 3)}}
	remote := Index{Items: []IndexEntry{entry("1", "p1", StatusCompleted, 999, 3)}}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.Skipped)
	assert.Empty(t, delta.ToUpload)
	assert.Empty(t, delta.ToDownload)
}

func TestCompareIndexes_LocalNewerUploads(t *testing.T) {
	local := Index{Items: []IndexEntry{entry("1", "p1", StatusPending, 200, 1)}}
	remote := Index{Items: []IndexEntry{entry("1", "p-remote", StatusPending, 100, 1)}}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.ToUpload)
	assert.True(t, delta.PagesToUpload["p1"])
}

func TestCompareIndexes_RemoteNewerDownloads(t *testing.T) {
	local := Index{Items: []IndexEntry{entry("1", "p1", StatusPending, 100, 1)}}
	remote := Index{Items: []IndexEntry{entry("1", "p-remote", StatusPending, 200, 1)}}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.ToDownload)
	assert.True(t, delta.PagesToDownload["p-remote"])
}

func TestCompareIndexes_EqualTimestampsSkipped(t *testing.T) {
	local := Index{Items: []IndexEntry{entry("1", "p1", StatusPending, 100, 1)}}
	remote := Index{Items: []IndexEntry{entry("1", "p-remote", StatusPending, 100, 2)}}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.Skipped)
}

func TestCompareIndexes_RemoteOnlyDownloads(t *testing.T) {
	local := Index{}
	remote := Index{Items: []IndexEntry{entry("1", "p1", StatusPending, 100, 1)}}

	delta := CompareIndexes(local, remote)

	assert.Equal(t, []string{"1"}, delta.ToDownload)
	assert.True(t, delta.PagesToDownload["p1"])
}
