package paged

// Delta is the result of comparing a local index against a remote index
// (spec.md §4.4 "Delta computation").
type Delta struct {
	ToUpload        []string // item IDs
	PagesToUpload   map[string]bool
	ToDownload      []string // item IDs
	PagesToDownload map[string]bool
	Skipped         []string // item IDs
}

func newDelta() Delta {
	return Delta{
		PagesToUpload:   make(map[string]bool),
		PagesToDownload: make(map[string]bool),
	}
}

// CompareIndexes computes the upload/download/skip sets between a local
// and a remote index, per spec.md §4.4:
//   - remote absent -> upload (and its page)
//   - remote present, terminal status, equal syncVersion -> skip
//   - local newer -> upload
//   - remote newer -> download (page taken from the remote item's pageId)
//   - equal timestamps -> skip
//   - remote-only items -> download
func CompareIndexes(local, remote Index) Delta {
	delta := newDelta()

	remoteByID := make(map[string]IndexEntry, len(remote.Items))
	for _, entry := range remote.Items {
		remoteByID[entry.ID] = entry
	}

	localByID := make(map[string]IndexEntry, len(local.Items))
	for _, entry := range local.Items {
		localByID[entry.ID] = entry
	}

	for _, l := range local.Items {
		r, ok := remoteByID[l.ID]

		switch {
		case !ok:
			delta.ToUpload = append(delta.ToUpload, l.ID)
			delta.PagesToUpload[l.PageID] = true

		case l.Status.IsTerminal() && l.SyncVersion == r.SyncVersion:
			delta.Skipped = append(delta.Skipped, l.ID)

		case l.UpdatedAt > r.UpdatedAt:
			delta.ToUpload = append(delta.ToUpload, l.ID)
			delta.PagesToUpload[l.PageID] = true

		case l.UpdatedAt < r.UpdatedAt:
			delta.ToDownload = append(delta.ToDownload, l.ID)
			delta.PagesToDownload[r.PageID] = true

		default:
			delta.Skipped = append(delta.Skipped, l.ID)
		}
	}

	for _, r := range remote.Items {
		if _, ok := localByID[r.ID]; !ok {
			delta.ToDownload = append(delta.ToDownload, r.ID)
			delta.PagesToDownload[r.PageID] = true
		}
	}

	return delta
}
