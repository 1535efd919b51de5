package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nullboard/gistsync/internal/config"
)

func timeNowUnix() int64 { return time.Now().Unix() }

func parseDurationSeconds(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}

	return int64(d.Seconds()), nil
}

// persistState writes the reconciler's current GistID/LastSyncTime back to
// config.toml and the in-memory Holder, and flushes the shard router's
// master index to the Gist if one is configured. Called after every
// command that may have mutated sync state, so a later command (possibly
// a different process) observes it.
func persistState(ctx context.Context, a *app) error {
	rc := a.Reconciler.CurrentConfig()

	cfg := *a.Holder.Config()
	cfg.Sync.GistID = rc.GistID
	cfg.Sync.LastSyncTime = rc.LastSyncTime

	if err := config.Save(&cfg, a.Holder.Path()); err != nil {
		return fmt.Errorf("persisting config: %w", err)
	}

	a.Holder.Update(&cfg)

	if router := a.Reconciler.ShardRouter(); router != nil && rc.GistID != "" {
		if err := saveMasterIndex(ctx, a.Gateway, rc.GistID, router.Index()); err != nil {
			return fmt.Errorf("persisting master index: %w", err)
		}
	}

	return nil
}
