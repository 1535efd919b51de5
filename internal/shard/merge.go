package shard

import (
	"context"
	"fmt"

	"github.com/nullboard/gistsync/internal/gistapi"
)

// MergeShards copies every file from sourceIDs into targetID, updates
// fileIndex.shardId for the moved files, then deletes the source files.
// Aborts without changes if the target is archived or lacks capacity for
// the combined content (spec.md §4.5 "Merge").
func (s *Syncer) MergeShards(ctx context.Context, sourceIDs []string, targetID string) error {
	index := s.router.Index()

	target, ok := index.Shards[targetID]
	if !ok {
		return fmt.Errorf("shard: unknown target shard %q", targetID)
	}

	if target.Status == StatusArchived {
		return fmt.Errorf("shard: cannot merge into archived shard %q", targetID)
	}

	type move struct {
		url      string
		entry    FileIndexEntry
		filename string
	}

	var moves []move

	var combinedSize int64

	for _, sourceID := range sourceIDs {
		for url, entry := range index.FileIndex {
			if entry.ShardID != sourceID {
				continue
			}

			moves = append(moves, move{url: url, entry: entry, filename: entry.Filename})
			combinedSize += entry.Size
		}
	}

	if target.TotalSize+combinedSize > SizeLimit || target.FileCount+len(moves) > FileLimit {
		return fmt.Errorf("shard: target %q lacks capacity for merge", targetID)
	}

	for _, sourceID := range sourceIDs {
		source, ok := index.Shards[sourceID]
		if !ok {
			continue
		}

		var updates []gistapi.FileUpdate

		var names []string

		for _, m := range moves {
			if m.entry.ShardID != sourceID {
				continue
			}

			content, err := s.gateway.GetGistFileContent(ctx, source.GistID, m.filename)
			if err != nil {
				return fmt.Errorf("shard: reading %s/%s for merge: %w", sourceID, m.filename, err)
			}

			data := string(content)
			updates = append(updates, gistapi.FileUpdate{Name: m.filename, Content: &data})
			names = append(names, m.filename)
		}

		if len(updates) == 0 {
			continue
		}

		if err := s.gateway.UpdateGistFiles(ctx, target.GistID, updates); err != nil {
			return fmt.Errorf("shard: copying files into %q: %w", targetID, err)
		}

		for _, m := range moves {
			if m.entry.ShardID != sourceID {
				continue
			}

			s.router.UnregisterFile(m.url)
			s.router.RegisterFile(m.url, targetID, FileIndexEntry{
				ShardID:  targetID,
				Filename: m.filename,
				Size:     m.entry.Size,
				Type:     m.entry.Type,
				SyncedAt: s.now(),
			})
		}

		if err := s.gateway.DeleteGistFiles(ctx, source.GistID, names); err != nil {
			return fmt.Errorf("shard: cleaning up source %q after merge: %w", sourceID, err)
		}
	}

	return nil
}

// Archive toggles a shard to archived: excluded from new allocations but
// still serves downloads and participates in tombstone sweeps (spec.md
// §4.5 "Archive / rename").
func (s *Syncer) Archive(shardID string) error {
	index := s.router.Index()

	info, ok := index.Shards[shardID]
	if !ok {
		return fmt.Errorf("shard: unknown shard %q", shardID)
	}

	info.Status = StatusArchived
	info.UpdatedAt = s.now()
	index.Shards[shardID] = info

	return nil
}

// Unarchive reactivates an archived shard for new allocations.
func (s *Syncer) Unarchive(shardID string) error {
	index := s.router.Index()

	info, ok := index.Shards[shardID]
	if !ok {
		return fmt.Errorf("shard: unknown shard %q", shardID)
	}

	if info.FileCount >= FileLimit {
		info.Status = StatusFull
	} else {
		info.Status = StatusActive
	}
	info.UpdatedAt = s.now()
	index.Shards[shardID] = info

	return nil
}

// Rename updates a shard's human-readable description.
func (s *Syncer) Rename(shardID, description string) error {
	index := s.router.Index()

	info, ok := index.Shards[shardID]
	if !ok {
		return fmt.Errorf("shard: unknown shard %q", shardID)
	}

	info.Description = description
	info.UpdatedAt = s.now()
	index.Shards[shardID] = info

	return nil
}
