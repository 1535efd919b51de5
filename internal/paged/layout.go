package paged

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// BuildLayout partitions items (already ordered by CreatedAt) into pages
// such that each page holds at most maxItems items and at most maxBytes of
// serialized content (spec.md §3.3(3)). A new page starts whenever either
// limit would be exceeded. Items are assumed already compacted — large
// inline fields should be stripped from T before calling BuildLayout, so
// the index stays bounded independent of content (spec.md §4.4
// "Rationale").
func BuildLayout[T any](items []Item[T], maxItems int, maxBytes int64, now int64) ([]Page[T], Index, error) {
	var (
		pages      []Page[T]
		current    []Item[T]
		currentSz  int64
		entries    []IndexEntry
		pageInfos  []PageInfo
	)

	pageID := func() string { return uuid.NewString() }

	flush := func() error {
		if len(current) == 0 {
			return nil
		}

		id := pageID()
		for i := range current {
			current[i].PageID = id
		}

		pages = append(pages, Page[T]{PageID: id, UpdatedAt: now, Items: current})
		pageInfos = append(pageInfos, PageInfo{PageID: id, UpdatedAt: now})

		current = nil
		currentSz = 0

		return nil
	}

	for _, item := range items {
		sz, err := itemSize(item)
		if err != nil {
			return nil, Index{}, fmt.Errorf("paged: sizing item %s: %w", item.ID, err)
		}

		if len(current) >= maxItems || (currentSz+sz > maxBytes && len(current) > 0) {
			if err := flush(); err != nil {
				return nil, Index{}, err
			}
		}

		current = append(current, item)
		currentSz += sz
	}

	if err := flush(); err != nil {
		return nil, Index{}, err
	}

	for _, p := range pages {
		for _, item := range p.Items {
			entries = append(entries, IndexEntry{
				ID:          item.ID,
				Type:        item.Type,
				Status:      item.Status,
				CreatedAt:   item.CreatedAt,
				UpdatedAt:   item.UpdatedAt,
				SyncVersion: item.SyncVersion,
				PageID:      item.PageID,
			})
		}
	}

	index := Index{
		Version:   1,
		UpdatedAt: now,
		Pages:     pageInfos,
		Items:     entries,
	}

	return pages, index, nil
}

func itemSize[T any](item Item[T]) (int64, error) {
	data, err := json.Marshal(item.Content)
	if err != nil {
		return 0, err
	}

	return int64(len(data)), nil
}
