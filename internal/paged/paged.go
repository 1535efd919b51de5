// Package paged implements the generic paged index store (spec.md §4.4):
// splitting an unbounded collection into an index file plus N page files,
// with per-item versioning so terminal items skip retransmission. The
// same machinery serves both tasks and workflows — the "identical shape"
// the spec calls for — via Go generics over the item type.
package paged

// Status mirrors the task/workflow status enum (spec.md §3.1). Terminal
// statuses freeze content and are eligible to be skipped during index
// comparison.
type Status string

// Status values. Terminal = {Completed, Failed, Cancelled}.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether s is a terminal status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Item is the shape every paged item (task, workflow) must satisfy. T is
// the concrete item type (e.g. Task, Workflow) carried alongside its index
// metadata in a Page.
type Item[T any] struct {
	ID          string
	Type        string
	Status      Status
	CreatedAt   int64
	UpdatedAt   int64
	SyncVersion int64
	PageID      string
	Content     T // full record; compacted before serialization, see Compact
}

// IndexEntry is the small per-item record carried in the index file —
// everything needed for UI without pulling in page content.
type IndexEntry struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Status          Status `json:"status"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
	SyncVersion     int64  `json:"syncVersion"`
	PageID          string `json:"pageId"`
	PromptPreview   string `json:"promptPreview,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
}

// PageInfo describes one page file within the index.
type PageInfo struct {
	PageID    string `json:"pageId"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Index is the top-level `{id}-index.json` document.
type Index struct {
	Version   int          `json:"version"`
	UpdatedAt int64        `json:"updatedAt"`
	Pages     []PageInfo   `json:"pages"`
	Items     []IndexEntry `json:"items"`
}

// Page is one `{id}s_p{N}.json` document, holding the compacted items
// assigned to it.
type Page[T any] struct {
	PageID    string    `json:"pageId"`
	UpdatedAt int64     `json:"updatedAt"`
	Items     []Item[T] `json:"items"`
}
