package paged

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
)

// Store is the local persistence surface Execute writes decoded pages
// into and reads dirty pages from. Defined at the consumer.
type Store[T any] interface {
	WritePage(ctx context.Context, page Page[T]) error
	ReadPage(ctx context.Context, pageID string) (Page[T], error)
}

// Remote is the subset of the gist gateway Execute needs to fetch and
// PATCH page files.
type Remote[T any] interface {
	FetchPage(ctx context.Context, pageID string) (Page[T], error)
	UploadPage(ctx context.Context, page Page[T]) error
	UploadIndex(ctx context.Context, index Index) error
}

// downloadYieldEvery and uploadYieldEvery match the cooperative
// scheduling points spec.md §5 documents for the paged syncer.
const (
	downloadYieldEvery = 2
	uploadYieldEvery   = 3
)

// Execute runs the download half of delta (every flagged remote page,
// written into the local store) then the upload half (the index plus
// every page in delta.PagesToUpload — whole-page replacement, not
// item-level PATCH), yielding to the scheduler every few pages as
// spec.md §5 prescribes so a long paged sync round doesn't starve other
// cooperative work. Per-page failures are accumulated rather than
// aborting the round; the caller decides whether any error is fatal.
func Execute[T any](ctx context.Context, store Store[T], remote Remote[T], delta Delta, localIndex, remoteIndex Index) error {
	var errs error

	downloaded := 0

	for pageID := range delta.PagesToDownload {
		page, err := remote.FetchPage(ctx, pageID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("paged: fetching page %s: %w", pageID, err))
			continue
		}

		if err := store.WritePage(ctx, page); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("paged: writing page %s: %w", pageID, err))
			continue
		}

		downloaded++
		if downloaded%downloadYieldEvery == 0 {
			runtime.Gosched()
		}
	}

	uploaded := 0

	for pageID := range delta.PagesToUpload {
		page, err := store.ReadPage(ctx, pageID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("paged: reading local page %s: %w", pageID, err))
			continue
		}

		if err := remote.UploadPage(ctx, page); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("paged: uploading page %s: %w", pageID, err))
			continue
		}

		uploaded++
		if uploaded%uploadYieldEvery == 0 {
			runtime.Gosched()
		}
	}

	if len(delta.PagesToUpload) > 0 {
		if err := remote.UploadIndex(ctx, localIndex); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("paged: uploading index: %w", err))
		}
	}

	return errs
}
