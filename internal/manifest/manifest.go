// Package manifest implements the root manifest file: the per-Gist record
// of every board's sync metadata, device registry, and tombstones
// (spec.md §3.2).
package manifest

// Manifest is the root file of a synced Gist.
type Manifest struct {
	Version       int                     `json:"version"`
	AppVersion    string                  `json:"appVersion"`
	CreatedAt     int64                   `json:"createdAt"`
	UpdatedAt     int64                   `json:"updatedAt"`
	DeviceID      string                  `json:"deviceId"`
	Devices       map[string]Device       `json:"devices"`
	Boards        map[string]BoardSyncInfo `json:"boards"`
	SyncedMedia   map[string]any          `json:"syncedMedia,omitempty"` // legacy, retained for backward read compat
	DeletedPrompts []string               `json:"deletedPrompts"`
	DeletedTasks   []string               `json:"deletedTasks"`
}

// Device is a registry entry recording when a device last synced.
type Device struct {
	Name       string `json:"name"`
	LastSyncAt int64  `json:"lastSyncAt"`
}

// BoardSyncInfo is the per-board sync record inside the manifest. A
// non-zero DeletedAt turns the entry into a tombstone — the board file
// itself is retained until the tombstone expires (spec.md §3.3(5)).
type BoardSyncInfo struct {
	Name      string `json:"name"`
	UpdatedAt int64  `json:"updatedAt"`
	Checksum  uint32 `json:"checksum"`
	DeletedAt int64  `json:"deletedAt,omitempty"`
	DeletedBy string `json:"deletedBy,omitempty"`
}

// IsTombstone reports whether this entry has been soft-deleted.
func (b BoardSyncInfo) IsTombstone() bool {
	return b.DeletedAt != 0
}

// currentVersion is the manifest format version this package emits.
const currentVersion = 2

// New creates an empty Manifest for a freshly created Gist.
func New(deviceID string, now int64) *Manifest {
	return &Manifest{
		Version:        currentVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
		DeviceID:       deviceID,
		Devices:        make(map[string]Device),
		Boards:         make(map[string]BoardSyncInfo),
		DeletedPrompts: []string{},
		DeletedTasks:   []string{},
	}
}

// MarkBoardTombstone records a soft-delete for boardID, preserving the
// existing Name/Checksum so the tombstone still identifies what was
// deleted.
func (m *Manifest) MarkBoardTombstone(boardID string, deletedAt int64, deletedBy string) {
	info, ok := m.Boards[boardID]
	if !ok {
		return
	}

	info.DeletedAt = deletedAt
	info.DeletedBy = deletedBy
	m.Boards[boardID] = info
}

// RestoreBoard clears a tombstone's DeletedAt/DeletedBy fields, per the
// recycle bin's restoreItem operation (spec.md §4.1 "Recycle bin
// surface").
func (m *Manifest) RestoreBoard(boardID string) {
	info, ok := m.Boards[boardID]
	if !ok {
		return
	}

	info.DeletedAt = 0
	info.DeletedBy = ""
	m.Boards[boardID] = info
}

// TombstonedBoards returns the IDs of every board currently soft-deleted.
func (m *Manifest) TombstonedBoards() []string {
	var ids []string

	for id, info := range m.Boards {
		if info.IsTombstone() {
			ids = append(ids, id)
		}
	}

	return ids
}
