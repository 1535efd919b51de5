package shard

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Router owns the in-memory master index and routes media blobs to shard
// Gists, creating new shards as existing ones fill (spec.md §4.5
// "Routing", "Allocation"). It is held by the reconciler and flushed to
// remote at round end (spec.md §5 "Shared resources").
type Router struct {
	mu sync.Mutex

	gateway Gateway
	sealer  Sealer

	masterGistID string
	index        *MasterIndex

	passphrase     string
	customPassword bool

	now func() int64
}

// NewRouter builds a Router over an already-loaded master index.
func NewRouter(gateway Gateway, sealer Sealer, masterGistID string, index *MasterIndex, passphrase string, customPassword bool, now func() int64) *Router {
	if index == nil {
		index = NewMasterIndex()
	}

	return &Router{
		gateway:        gateway,
		sealer:         sealer,
		masterGistID:   masterGistID,
		index:          index,
		passphrase:     passphrase,
		customPassword: customPassword,
		now:            now,
	}
}

// Index returns the current in-memory master index. Callers must not
// mutate it directly; it is serialized for upload by the reconciler at
// round end.
func (r *Router) Index() *MasterIndex {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.index
}

// AllocationRequest describes one blob awaiting a shard assignment.
type AllocationRequest struct {
	URL  string
	Size int64
}

// AllocateFile finds or creates a shard with capacity for size bytes,
// preferring the fullest active shard that still fits (fill-first,
// reduces fragmentation per spec.md §4.5).
func (r *Router) AllocateFile(ctx context.Context, size int64) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shard, ok := r.fullestWithCapacityLocked(size); ok {
		return shard, nil
	}

	return r.createShardLocked(ctx)
}

func (r *Router) fullestWithCapacityLocked(size int64) (Info, bool) {
	var (
		best  Info
		found bool
	)

	ids := make([]string, 0, len(r.index.Shards))
	for id := range r.index.Shards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		info := r.index.Shards[id]
		if !info.HasCapacity(size) {
			continue
		}

		if !found || info.FileCount > best.FileCount {
			best = info
			found = true
		}
	}

	return best, found
}

func (r *Router) createShardLocked(ctx context.Context) (Info, error) {
	order := len(r.index.Shards)
	alias := fmt.Sprintf("shard-%d", order)

	manifest := NewManifest(alias, r.masterGistID)
	data, err := serializeManifest(r.sealer, manifest, r.masterGistID, r.passphrase, r.customPassword)
	if err != nil {
		return Info{}, err
	}

	gistID, err := r.gateway.CreateGist(ctx, "gistsync media shard", map[string]string{
		shardManifestFilename: string(data),
	})
	if err != nil {
		return Info{}, fmt.Errorf("shard: creating shard gist: %w", err)
	}

	info := Info{
		GistID:    gistID,
		Alias:     alias,
		Order:     order,
		Status:    StatusActive,
		UpdatedAt: r.now(),
	}

	r.index.Shards[alias] = info

	return info, nil
}

// reservation tracks capacity an item earlier in the same AllocateFiles
// batch has claimed in a shard, before RegisterFile commits it to the
// master index after a successful upload.
type reservation struct {
	count int
	size  int64
}

// AllocateFiles runs the allocation decision greedily across a batch,
// creating new shards as needed, and returns the url -> shard assignment
// plus any newly created shards (spec.md §4.5 "allocateFiles"). Capacity
// consumed by earlier items in the same batch is reserved in-memory as
// the loop proceeds, since RegisterFile only updates the master index
// once a batch's upload actually succeeds — without this, every item in
// a batch would be routed against the same stale FileCount/TotalSize and
// the SHARD_FILE_LIMIT invariant (spec.md §3.3(4)) would never trigger a
// spill mid-batch.
func (r *Router) AllocateFiles(ctx context.Context, items []AllocationRequest) (map[string]Info, []Info, error) {
	assignments := make(map[string]Info, len(items))

	var created []Info

	seenShards := make(map[string]bool, len(r.index.Shards))
	r.mu.Lock()
	for id := range r.index.Shards {
		seenShards[id] = true
	}
	r.mu.Unlock()

	reserved := make(map[string]reservation, len(r.index.Shards))

	for _, item := range items {
		shard, err := r.allocateReservedLocked(ctx, item.Size, reserved)
		if err != nil {
			return nil, nil, err
		}

		assignments[item.URL] = shard

		res := reserved[shard.Alias]
		res.count++
		res.size += item.Size
		reserved[shard.Alias] = res

		if !seenShards[shard.Alias] {
			seenShards[shard.Alias] = true
			created = append(created, shard)
		}
	}

	return assignments, created, nil
}

// allocateReservedLocked is AllocateFile's batch-aware variant: each
// shard's capacity is checked as if already reduced by the reservations
// made earlier in this same batch.
func (r *Router) allocateReservedLocked(ctx context.Context, size int64, reserved map[string]reservation) (Info, error) {
	r.mu.Lock()

	var (
		best  Info
		found bool
	)

	ids := make([]string, 0, len(r.index.Shards))
	for id := range r.index.Shards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		info := r.index.Shards[id]

		res := reserved[id]
		info.FileCount += res.count
		info.TotalSize += res.size

		if !info.HasCapacity(size) {
			continue
		}

		if !found || info.FileCount > best.FileCount {
			best = info
			found = true
		}
	}

	r.mu.Unlock()

	if found {
		return best, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createShardLocked(ctx)
}

// RegisterFile records a successful upload in the master index,
// transitioning the shard to full if it just hit capacity (spec.md
// §4.5 "Upload").
func (r *Router) RegisterFile(url string, shardAlias string, entry FileIndexEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index.FileIndex[url] = entry

	info := r.index.Shards[shardAlias]
	info.FileCount++
	info.TotalSize += entry.Size
	info.UpdatedAt = r.now()

	if !info.HasCapacity(0) {
		info.Status = StatusFull
	}

	r.index.Shards[shardAlias] = info
}

// UnregisterFile reverses RegisterFile, used both for rollback on a
// failed batch and for tombstone hard-deletion.
func (r *Router) UnregisterFile(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.index.FileIndex[url]
	if !ok {
		return
	}

	delete(r.index.FileIndex, url)

	info, ok := r.index.Shards[entry.ShardID]
	if !ok {
		return
	}

	info.FileCount--
	info.TotalSize -= entry.Size
	info.UpdatedAt = r.now()

	if info.FileCount < FileLimit && info.Status == StatusFull {
		info.Status = StatusActive
	}

	r.index.Shards[entry.ShardID] = info
}
