package reconciler

import (
	"context"
	"time"
)

const defaultAutoSyncDebounce = 30 * time.Second

// MarkDirty resets the auto-sync debounce timer, per spec.md §4.1.5. The
// host calls this on every local mutation; the timer firing with no sync
// in progress triggers a one-way push, never a pull.
func (r *Reconciler) MarkDirty(ctx context.Context) {
	r.autosyncMu.Lock()
	defer r.autosyncMu.Unlock()

	r.pendingChange = true

	debounce := time.Duration(r.cfg.AutoSyncDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = defaultAutoSyncDebounce
	}

	if r.autosyncTimer != nil {
		r.autosyncTimer.Stop()
	}

	r.autosyncTimer = time.AfterFunc(debounce, func() {
		r.fireAutoSync(ctx)
	})
}

func (r *Reconciler) fireAutoSync(ctx context.Context) {
	r.autosyncMu.Lock()
	pending := r.pendingChange
	r.autosyncMu.Unlock()

	if !pending {
		return
	}

	r.mu.Lock()
	busy := r.syncInProgress
	r.mu.Unlock()

	if busy {
		return
	}

	result := r.PushToRemote(ctx)
	if !result.Success() {
		r.logger.Warn("auto-sync push failed", "kind", result.FailureKind, "message", result.FailureMessage)
	}
}

// StopAutoSync cancels any pending debounce timer, e.g. on shutdown.
func (r *Reconciler) StopAutoSync() {
	r.autosyncMu.Lock()
	defer r.autosyncMu.Unlock()

	if r.autosyncTimer != nil {
		r.autosyncTimer.Stop()
	}
}
