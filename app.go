package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nullboard/gistsync/internal/config"
	"github.com/nullboard/gistsync/internal/crypto"
	"github.com/nullboard/gistsync/internal/gistapi"
	"github.com/nullboard/gistsync/internal/passstore"
	"github.com/nullboard/gistsync/internal/reconciler"
	"github.com/nullboard/gistsync/internal/shard"
	"github.com/nullboard/gistsync/internal/store"
	"github.com/nullboard/gistsync/internal/tokenstore"
	"github.com/nullboard/gistsync/internal/workqueue"
)

// masterIndexFilename is the plaintext shard-routing document living
// alongside manifest.json in the sync Gist.
const masterIndexFilename = "master-index.json"

func tokenStorePath() string    { return filepath.Join(config.DefaultDataDir(), "token.json") }
func passwordStorePath() string { return filepath.Join(config.DefaultDataDir(), "password.json") }

// workQueueBufferSize bounds the fire-and-forget media-sync queue.
const workQueueBufferSize = 32

// app bundles the reconciler and every collaborator a command may need
// direct access to (token/password stores, the raw gateway for `token
// validate`), plus a close func releasing the local database.
type app struct {
	Holder     *config.Holder
	Logger     *slog.Logger
	Gateway    *gistapi.Gateway
	Tokens     *tokenstore.Store
	Passwords  *passstore.Store
	Reconciler *reconciler.Reconciler

	close func() error
}

// Close releases the local state database.
func (a *app) Close() error {
	if a.close == nil {
		return nil
	}

	return a.close()
}

// envTokenSource wraps a fixed token string, used when GISTSYNC_TOKEN
// bypasses the token store.
type envTokenSource string

func (e envTokenSource) Token() (string, error) { return string(e), nil }

// buildApp wires the reconciler composition root from the resolved
// config: token/password stores, the Gist gateway, the crypto envelope,
// local SQLite persistence, the shard router/syncer, and finally the
// reconciler itself (spec.md §9's "implicit singletons -> explicit
// collaborator objects").
func buildApp(ctx context.Context, cc *CLIContext) (*app, error) {
	cfg := cc.Holder.Config()
	logger := cc.Logger

	tokens := tokenstore.New(tokenStorePath())
	passwords := passstore.New(passwordStorePath())

	var tokenSource gistapi.TokenSource = tokens

	env := config.ReadEnvOverrides()
	if env.Token != "" {
		tokenSource = envTokenSource(env.Token)
	}

	gateway := gistapi.New(tokenSource, logger)
	envelope := crypto.New()

	statePath := config.DefaultStateDBPath()

	db, err := store.Open(ctx, statePath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening local state database: %w", err)
	}

	deviceID, err := ensureDeviceID(cc.Holder)
	if err != nil {
		db.Close()
		return nil, err
	}

	passphrase, customPassword, err := loadPassphrase(passwords, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	masterIndex, err := loadMasterIndex(ctx, gateway, envelope, cfg.Sync.GistID)
	if err != nil {
		db.Close()
		return nil, err
	}

	shardRouter := shard.NewRouter(gateway, envelope, cfg.Sync.GistID, masterIndex, passphrase, customPassword, timeNowUnix)
	mediaSyncer := shard.NewSyncer(shardRouter, gateway, deviceID, cfg.Capacity.ShardConcurrency, timeNowUnix)

	queue := workqueue.New(ctx, workQueueBufferSize, logger)

	taskStore := store.NewPagedItemStore[reconciler.TaskContent](db, "task")
	workflowStore := store.NewPagedItemStore[reconciler.WorkflowContent](db, "workflow")

	rec := reconciler.NewReconciler(reconciler.Deps{
		Gateway:       gateway,
		Sealer:        envelope,
		Local:         db,
		ShardRouter:   shardRouter,
		MediaSyncer:   mediaSyncer,
		WorkQueue:     queue,
		TaskStore:     taskStore,
		WorkflowStore: workflowStore,
		DeviceID:      deviceID,
		Passphrase: func() (string, bool) {
			p, c, _ := loadPassphrase(passwords, cc.Holder.Config())
			return p, c
		},
		Now:    timeNowUnix,
		Logger: logger,
		Config: reconciler.Config{
			GistID:             cfg.Sync.GistID,
			LastSyncTime:       cfg.Sync.LastSyncTime,
			AutoSyncDebounceMs: cfg.Sync.AutoSyncDebounceMs,
			BulkDeletePercent:  cfg.Safety.BulkDeletePercent,
			PageMaxItems:       cfg.Capacity.PageMaxItems,
			PageMaxBytes:       cfg.Capacity.PageMaxBytes,
			TombstoneRetention: tombstoneRetentionSeconds(cfg),
			ShardConcurrency:   cfg.Capacity.ShardConcurrency,
		},
	})

	return &app{
		Holder:     cc.Holder,
		Logger:     logger,
		Gateway:    gateway,
		Tokens:     tokens,
		Passwords:  passwords,
		Reconciler: rec,
		close:      db.Close,
	}, nil
}

// ensureDeviceID returns the configured device ID, generating and
// persisting one on first use so every subsequent command reuses the same
// identity for manifest device-authorship fields (spec.md §3.2).
func ensureDeviceID(h *config.Holder) (string, error) {
	cfg := h.Config()
	if cfg.Sync.DeviceID != "" {
		return cfg.Sync.DeviceID, nil
	}

	updated := *cfg
	updated.Sync.DeviceID = uuid.NewString()

	if err := config.Save(&updated, h.Path()); err != nil {
		return "", fmt.Errorf("persisting generated device id: %w", err)
	}

	h.Update(&updated)

	return updated.Sync.DeviceID, nil
}

// loadPassphrase adapts passstore's ErrNotSet-returning Load into the
// reconciler's (passphrase, ok) shape.
func loadPassphrase(p *passstore.Store, cfg *config.Config) (string, bool, error) {
	if !cfg.Crypto.UseCustomPassword {
		return "", false, nil
	}

	passphrase, err := p.Load()
	if errors.Is(err, passstore.ErrNotSet) {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}

	return passphrase, true, nil
}

// loadMasterIndex fetches and decodes master-index.json from the
// configured Gist, if any. The document is plaintext per the file format
// table, so no sealer round-trip is needed.
func loadMasterIndex(ctx context.Context, gw *gistapi.Gateway, _ *crypto.Envelope, gistID string) (*shard.MasterIndex, error) {
	if gistID == "" {
		return shard.NewMasterIndex(), nil
	}

	data, err := gw.GetGistFileContent(ctx, gistID, masterIndexFilename)
	if err != nil {
		return shard.NewMasterIndex(), nil
	}

	var idx shard.MasterIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decoding master index: %w", err)
	}

	if idx.Shards == nil {
		idx.Shards = make(map[string]shard.Info)
	}

	if idx.FileIndex == nil {
		idx.FileIndex = make(map[string]shard.FileIndexEntry)
	}

	return &idx, nil
}

// saveMasterIndex persists the shard router's in-memory index back to the
// configured Gist after a command that may have allocated or mutated
// shards.
func saveMasterIndex(ctx context.Context, gw *gistapi.Gateway, gistID string, idx *shard.MasterIndex) error {
	if gistID == "" {
		return nil
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encoding master index: %w", err)
	}

	content := string(data)

	return gw.UpdateGistFiles(ctx, gistID, []gistapi.FileUpdate{{Name: masterIndexFilename, Content: &content}})
}

// tombstoneRetentionSeconds parses the config's duration string into
// seconds, defaulting to 0 (no cleanup) on a malformed value — Validate
// already rejects those before this path is reached in practice.
func tombstoneRetentionSeconds(cfg *config.Config) int64 {
	d, err := parseDurationSeconds(cfg.Capacity.TombstoneRetention)
	if err != nil {
		return 0
	}

	return d
}
