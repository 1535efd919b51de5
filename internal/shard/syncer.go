package shard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/nullboard/gistsync/internal/gistapi"
)

// requestBatchMaxBytes mirrors gistapi's PATCH body cap (spec.md §4.3);
// media uploads batch against the same limit since they PATCH the same
// Gist API.
const requestBatchMaxBytes = 8_000_000

// MediaItem is a blob awaiting upload to its routed shard.
type MediaItem struct {
	URL         string
	Type        string // image | video
	Source      string // local | external
	MimeType    string
	Size        int64
	Base64Data  string
	OriginalURL string
}

// UploadResult reports the outcome of one blob's upload attempt.
type UploadResult struct {
	URL     string
	Success bool
	Err     error
}

// Syncer uploads, soft-deletes, restores, and sweeps media blobs across
// the shards a Router routes them to (spec.md §4.5 "Upload", "Soft
// delete", "Tombstone sweep").
type Syncer struct {
	router  *Router
	gateway Gateway

	deviceID    string
	concurrency int
	now         func() int64

	mu          sync.Mutex
	syncingURLs map[string]bool
}

// NewSyncer builds a Syncer. concurrency bounds how many shards upload in
// parallel (spec.md §5 "Concurrency limit", recommended 2-4).
func NewSyncer(router *Router, gateway Gateway, deviceID string, concurrency int, now func() int64) *Syncer {
	if concurrency <= 0 {
		concurrency = 2
	}

	return &Syncer{
		router:      router,
		gateway:     gateway,
		deviceID:    deviceID,
		concurrency: concurrency,
		now:         now,
		syncingURLs: make(map[string]bool),
	}
}

// UploadMedia uploads every item not already synced, skipping URLs
// already in flight via the process-local syncingUrls guard (spec.md §4.5
// "Upload", §5 "Shared resources").
func (s *Syncer) UploadMedia(ctx context.Context, items []MediaItem) ([]UploadResult, error) {
	pending := s.claimPending(items)
	defer s.releasePending(pending)

	if len(pending) == 0 {
		return nil, nil
	}

	requests := make([]AllocationRequest, len(pending))
	for i, item := range pending {
		requests[i] = AllocationRequest{URL: item.URL, Size: item.Size}
	}

	assignments, _, err := s.router.AllocateFiles(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("shard: allocating shards: %w", err)
	}

	byShard := make(map[string][]MediaItem)
	for _, item := range pending {
		shard := assignments[item.URL]
		byShard[shard.Alias] = append(byShard[shard.Alias], item)
	}

	var (
		mu      sync.Mutex
		results []UploadResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, shardItems := range byShard {
		shardItems := shardItems

		g.Go(func() error {
			shard := assignments[shardItems[0].URL]

			res, err := s.uploadToShard(gctx, shard, shardItems)

			mu.Lock()
			results = append(results, res...)
			mu.Unlock()

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

func (s *Syncer) claimPending(items []MediaItem) []MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []MediaItem

	for _, item := range items {
		if _, ok := s.router.Index().FileIndex[item.URL]; ok {
			continue
		}

		if s.syncingURLs[item.URL] {
			continue
		}

		s.syncingURLs[item.URL] = true

		pending = append(pending, item)
	}

	return pending
}

func (s *Syncer) releasePending(items []MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		delete(s.syncingURLs, item.URL)
	}
}

// uploadToShard uploads every item assigned to one shard, splitting into
// ≤8MB request batches. A batch failure reverses the registrations made
// by that batch only; earlier batches in the same shard remain committed
// (spec.md §4.5: "On a shard batch failure, reverse the registrations for
// that batch").
func (s *Syncer) uploadToShard(ctx context.Context, shard Info, items []MediaItem) ([]UploadResult, error) {
	var (
		results []UploadResult
		errs    error
	)

	for _, batch := range batchMediaItems(items) {
		updates := make([]gistapi.FileUpdate, 0, len(batch))

		for _, item := range batch {
			file := MediaFile{
				URL:              item.URL,
				Type:             item.Type,
				Source:           item.Source,
				MimeType:         item.MimeType,
				Size:             item.Size,
				Base64Data:       item.Base64Data,
				SyncedAt:         s.now(),
				SyncedFromDevice: s.deviceID,
				OriginalURL:      item.OriginalURL,
			}

			data, err := json.Marshal(file)
			if err != nil {
				results = append(results, UploadResult{URL: item.URL, Err: err})
				continue
			}

			content := string(data)
			updates = append(updates, gistapi.FileUpdate{Name: mediaFilename(item.URL), Content: &content})
		}

		if err := s.gateway.UpdateGistFiles(ctx, shard.GistID, updates); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shard: uploading batch to shard %s: %w", shard.Alias, err))

			for _, item := range batch {
				results = append(results, UploadResult{URL: item.URL, Success: false, Err: err})
			}

			continue
		}

		for _, item := range batch {
			s.router.RegisterFile(item.URL, shard.Alias, FileIndexEntry{
				ShardID:  shard.Alias,
				Filename: mediaFilename(item.URL),
				Size:     item.Size,
				Type:     item.Type,
				SyncedAt: s.now(),
			})

			results = append(results, UploadResult{URL: item.URL, Success: true})
		}
	}

	return results, errs
}

// batchMediaItems groups items so each group's aggregate base64 payload
// stays within requestBatchMaxBytes.
func batchMediaItems(items []MediaItem) [][]MediaItem {
	if len(items) == 0 {
		return nil
	}

	var (
		batch  []MediaItem
		size   int
		result [][]MediaItem
	)

	flush := func() {
		if len(batch) > 0 {
			result = append(result, batch)
			batch = nil
			size = 0
		}
	}

	for _, item := range items {
		n := len(item.Base64Data)

		if size+n > requestBatchMaxBytes && len(batch) > 0 {
			flush()
		}

		batch = append(batch, item)
		size += n
	}

	flush()

	return result
}

// SoftDeleteMedia moves every known URL's file index entry into
// tombstones, decrementing shard capacity counters and transitioning a
// shard back to active if it drops below the file limit (spec.md §4.5
// "Soft delete").
func (s *Syncer) SoftDeleteMedia(urls []string, deletedBy string) {
	index := s.router.Index()

	for _, url := range urls {
		entry, ok := index.FileIndex[url]
		if !ok {
			continue
		}

		index.Tombstones = append(index.Tombstones, Tombstone{
			URL:       url,
			ShardID:   entry.ShardID,
			Filename:  entry.Filename,
			Size:      entry.Size,
			DeletedAt: s.now(),
			DeletedBy: deletedBy,
		})

		s.router.UnregisterFile(url)
	}
}

// RestoreMedia finds url's tombstone, verifies the file still exists in
// its shard, re-registers it, and removes the tombstone (spec.md §4.5
// "Restore").
func (s *Syncer) RestoreMedia(ctx context.Context, url string) error {
	index := s.router.Index()

	pos := -1

	var tomb Tombstone

	for i, t := range index.Tombstones {
		if t.URL == url {
			tomb = t
			pos = i

			break
		}
	}

	if pos == -1 {
		return fmt.Errorf("shard: no tombstone for %q", url)
	}

	shard, ok := index.Shards[tomb.ShardID]
	if !ok {
		return fmt.Errorf("shard: tombstone references unknown shard %q", tomb.ShardID)
	}

	names, err := s.gateway.ListGistFilenames(ctx, shard.GistID)
	if err != nil {
		return fmt.Errorf("shard: verifying restore target: %w", err)
	}

	if !contains(names, tomb.Filename) {
		return fmt.Errorf("shard: file %q no longer present in shard %q", tomb.Filename, tomb.ShardID)
	}

	s.router.RegisterFile(url, tomb.ShardID, FileIndexEntry{
		ShardID:  tomb.ShardID,
		Filename: tomb.Filename,
		Size:     tomb.Size,
		SyncedAt: s.now(),
	})

	index.Tombstones = append(index.Tombstones[:pos], index.Tombstones[pos+1:]...)

	return nil
}

// CleanupExpiredTombstones hard-deletes the underlying files for every
// tombstone older than retentionSeconds, batched per shard, then drops
// those tombstones (spec.md §4.5 "Tombstone sweep", §3.3(5) retention).
func (s *Syncer) CleanupExpiredTombstones(ctx context.Context, retentionSeconds int64) error {
	index := s.router.Index()
	nowTS := s.now()

	byShard := make(map[string][]Tombstone)

	var kept []Tombstone

	for _, t := range index.Tombstones {
		if nowTS-t.DeletedAt < retentionSeconds {
			kept = append(kept, t)
			continue
		}

		byShard[t.ShardID] = append(byShard[t.ShardID], t)
	}

	var errs error

	for shardID, tombs := range byShard {
		shard, ok := index.Shards[shardID]
		if !ok {
			continue
		}

		names := make([]string, len(tombs))
		for i, t := range tombs {
			names[i] = t.Filename
		}

		if err := s.gateway.DeleteGistFiles(ctx, shard.GistID, names); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shard: sweeping tombstones in shard %s: %w", shardID, err))
			kept = append(kept, tombs...)

			continue
		}
	}

	index.Tombstones = kept

	return errs
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}

	return false
}
