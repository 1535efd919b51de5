package reconciler

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/nullboard/gistsync/internal/shard"
)

// boardElementMedia is the subset of an opaque board element's fields the
// reconciler reads to find media referenced by a board, per spec.md
// §3.1/§3.4's Board/MediaBlob model. Elements with no url are ignored.
type boardElementMedia struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// SetCurrentBoard records which board is open in the host UI, consulted
// both by the safety gate (CURRENT_BOARD_PROTECT) and by the
// fire-and-forget media sync that follows a round.
func (r *Reconciler) SetCurrentBoard(boardID string) {
	r.mu.Lock()
	r.currentBoardID = boardID
	r.mu.Unlock()
}

// scheduleMediaSync posts a job uploading the current board's referenced,
// not-yet-synced media blobs and returns immediately without waiting for
// the upload (spec.md §9 "message posted to a bounded work channel ...
// reconciler returns without awaiting").
func (r *Reconciler) scheduleMediaSync(ctx context.Context) {
	if r.work == nil || r.media == nil {
		return
	}

	r.mu.Lock()
	boardID := r.currentBoardID
	r.mu.Unlock()

	if boardID == "" {
		return
	}

	r.work.Enqueue(func(jobCtx context.Context) error {
		items, err := r.collectBoardMedia(jobCtx, boardID)
		if err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		_, err = r.media.UploadMedia(jobCtx, items)

		return err
	})
}

func (r *Reconciler) collectBoardMedia(ctx context.Context, boardID string) ([]shard.MediaItem, error) {
	rec, err := r.local.GetBoard(ctx, boardID)
	if err != nil {
		return nil, nil
	}

	doc, err := decodeBoard(rec.Data)
	if err != nil {
		return nil, nil
	}

	var items []shard.MediaItem

	for _, raw := range doc.Elements {
		var elem boardElementMedia
		if err := json.Unmarshal(raw, &elem); err != nil {
			continue
		}

		if elem.URL == "" {
			continue
		}

		data, err := r.local.GetBlob(ctx, elem.URL)
		if err != nil || len(data) == 0 {
			continue
		}

		items = append(items, shard.MediaItem{
			URL:        elem.URL,
			Type:       elem.Type,
			Source:     "local",
			MimeType:   elem.MimeType,
			Size:       elem.Size,
			Base64Data: base64.StdEncoding.EncodeToString(data),
		})
	}

	return items, nil
}
