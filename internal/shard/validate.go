package shard

import (
	"context"
	"encoding/json"
	"fmt"
)

// ValidateShards fetches each registered shard's actual file list and
// compares it against the fileIndex entries pointing there, reporting
// drift (spec.md §4.5 "Validation").
func (s *Syncer) ValidateShards(ctx context.Context) (ValidationReport, error) {
	index := s.router.Index()

	expectedByShard := make(map[string][]string) // shardID -> filenames fileIndex expects there
	for _, entry := range index.FileIndex {
		expectedByShard[entry.ShardID] = append(expectedByShard[entry.ShardID], entry.Filename)
	}

	var report ValidationReport

	for shardID, info := range index.Shards {
		actual, err := s.gateway.ListGistFilenames(ctx, info.GistID)
		if err != nil {
			report.MissingGist = append(report.MissingGist, shardID)
			continue
		}

		actualSet := make(map[string]bool, len(actual))
		for _, name := range actual {
			if name == shardManifestFilename {
				continue
			}
			actualSet[name] = true
		}

		expectedSet := make(map[string]bool, len(expectedByShard[shardID]))
		for _, name := range expectedByShard[shardID] {
			expectedSet[name] = true

			if !actualSet[name] {
				report.MissingFile = append(report.MissingFile, fmt.Sprintf("%s/%s", shardID, name))
			}
		}

		for name := range actualSet {
			if !expectedSet[name] {
				report.OrphanFile = append(report.OrphanFile, fmt.Sprintf("%s/%s", shardID, name))
			}
		}

		if info.FileCount != len(expectedByShard[shardID]) {
			report.CountMismatch = true
		}
	}

	return report, nil
}

// RepairOrphanFiles reads each orphan file's own header (url, type, size)
// and registers it in the fileIndex, recovering from a partial write that
// uploaded the file but never updated the master index (spec.md §4.5
// "repairOrphanFiles").
func (s *Syncer) RepairOrphanFiles(ctx context.Context, shardID string, filenames []string) error {
	index := s.router.Index()

	shard, ok := index.Shards[shardID]
	if !ok {
		return fmt.Errorf("shard: unknown shard %q", shardID)
	}

	for _, filename := range filenames {
		data, err := s.gateway.GetGistFileContent(ctx, shard.GistID, filename)
		if err != nil {
			return fmt.Errorf("shard: reading orphan %s/%s: %w", shardID, filename, err)
		}

		var file MediaFile
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("shard: decoding orphan %s/%s: %w", shardID, filename, err)
		}

		url := file.URL
		if url == "" {
			decoded, ok := decodeMediaFilename(filename)
			if !ok {
				return fmt.Errorf("shard: orphan %s/%s carries no recoverable url", shardID, filename)
			}
			url = decoded
		}

		s.router.RegisterFile(url, shardID, FileIndexEntry{
			ShardID:  shardID,
			Filename: filename,
			Size:     file.Size,
			Type:     file.Type,
			SyncedAt: s.now(),
		})
	}

	return nil
}
