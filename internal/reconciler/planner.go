package reconciler

import (
	"github.com/nullboard/gistsync/internal/manifest"
	"github.com/nullboard/gistsync/internal/store"
)

// boardPlan is the classification result of one sync round's comparison
// step (spec.md §4.1.2).
type boardPlan struct {
	ToUpload        []string
	ToDownload      []string
	Conflicts       []string
	ToDeleteLocally []string
}

// localBoardView is what the planner needs about one local board, decoupled
// from store.BoardRecord so tests can build it without a real store.
type localBoardView struct {
	ID        string
	UpdatedAt int64
	Checksum  uint32
	Empty     bool
}

func buildLocalViews(records []store.BoardRecord, checksums map[string]uint32) []localBoardView {
	views := make([]localBoardView, 0, len(records))

	for _, rec := range records {
		views = append(views, localBoardView{
			ID:        rec.ID,
			UpdatedAt: rec.UpdatedAt,
			Checksum:  checksums[rec.ID],
			Empty:     localBoardEmpty(rec),
		})
	}

	return views
}

// compareBoardChanges classifies every board into an upload/download/
// conflict/delete-locally bucket by comparing local state against the
// remote manifest (spec.md §4.1.2). lastSyncTime == 0 means this device
// has never completed a sync round against this Gist.
func compareBoardChanges(local []localBoardView, remoteManifest *manifest.Manifest, lastSyncTime int64) boardPlan {
	var plan boardPlan

	seen := make(map[string]bool, len(local))

	for _, view := range local {
		seen[view.ID] = true

		remote, ok := remoteManifest.Boards[view.ID]

		switch {
		case !ok:
			// Remote has never heard of this board: upload it.
			plan.ToUpload = append(plan.ToUpload, view.ID)

		case remote.IsTombstone():
			// Remote deleted this board since we last saw it.
			plan.ToDeleteLocally = append(plan.ToDeleteLocally, view.ID)

		case remote.Checksum == view.Checksum:
			// Identical content, nothing to do.
			continue

		case lastSyncTime == 0:
			// First sync ever against this Gist: prefer whichever side has
			// content, otherwise newer wins.
			if view.Empty {
				plan.ToDownload = append(plan.ToDownload, view.ID)
			} else if remote.UpdatedAt > view.UpdatedAt {
				plan.ToDownload = append(plan.ToDownload, view.ID)
			} else {
				plan.ToUpload = append(plan.ToUpload, view.ID)
			}

		case view.UpdatedAt > lastSyncTime && remote.UpdatedAt > lastSyncTime:
			// Both sides changed since the last successful round: merge at
			// the element level rather than picking a winner outright.
			plan.Conflicts = append(plan.Conflicts, view.ID)

		case view.UpdatedAt > lastSyncTime:
			plan.ToUpload = append(plan.ToUpload, view.ID)

		case remote.UpdatedAt > lastSyncTime:
			plan.ToDownload = append(plan.ToDownload, view.ID)

		default:
			// Neither side changed since last sync but checksums differ —
			// treat conservatively as a conflict rather than silently
			// picking a side.
			plan.Conflicts = append(plan.Conflicts, view.ID)
		}
	}

	for id, remote := range remoteManifest.Boards {
		if seen[id] || remote.IsTombstone() {
			continue
		}

		plan.ToDownload = append(plan.ToDownload, id)
	}

	return plan
}
