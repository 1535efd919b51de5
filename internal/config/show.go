package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the `gistsync config show` command,
// giving users visibility into the effective values after the override
// chain (defaults -> file -> env -> CLI) has been applied.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective gistsync configuration\n\n")

	renderSyncSection(ew, &cfg.Sync)
	renderCapacitySection(ew, &cfg.Capacity)
	renderSafetySection(ew, &cfg.Safety)
	renderCryptoSection(ew, &cfg.Crypto)
	renderLoggingSection(ew, &cfg.Logging)
	renderNetworkSection(ew, &cfg.Network)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain printf
// calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderSyncSection(ew *errWriter, s *SyncConfig) {
	ew.printf("[sync]\n")
	ew.printf("  enabled                 = %t\n", s.Enabled)
	ew.printf("  auto_sync               = %t\n", s.AutoSync)
	ew.printf("  auto_sync_debounce_ms   = %d\n", s.AutoSyncDebounceMs)

	if s.GistID != "" {
		ew.printf("  gist_id                 = %q\n", s.GistID)
	}

	ew.printf("  last_sync_time          = %d\n", s.LastSyncTime)

	if s.DeviceID != "" {
		ew.printf("  device_id               = %q\n", s.DeviceID)
	}

	ew.printf("\n")
}

func renderCapacitySection(ew *errWriter, c *CapacityConfig) {
	ew.printf("[capacity]\n")
	ew.printf("  page_max_items          = %d\n", c.PageMaxItems)
	ew.printf("  page_max_bytes          = %d\n", c.PageMaxBytes)
	ew.printf("  shard_file_limit        = %d\n", c.ShardFileLimit)
	ew.printf("  shard_size_limit        = %d\n", c.ShardSizeLimit)
	ew.printf("  media_max_bytes         = %d\n", c.MediaMaxBytes)
	ew.printf("  tombstone_retention     = %q\n", c.TombstoneRetention)
	ew.printf("  pbkdf2_iterations       = %d\n", c.PBKDF2Iterations)
	ew.printf("  aes_iv_length           = %d\n", c.AESIVLength)
	ew.printf("  request_batch_max_size  = %d\n", c.RequestBatchMaxSize)
	ew.printf("  shard_concurrency       = %d\n", c.ShardConcurrency)
	ew.printf("\n")
}

func renderSafetySection(ew *errWriter, s *SafetyConfig) {
	ew.printf("[safety]\n")
	ew.printf("  bulk_delete_percent = %v\n", s.BulkDeletePercent)
	ew.printf("\n")
}

func renderCryptoSection(ew *errWriter, c *CryptoConfig) {
	ew.printf("[crypto]\n")
	ew.printf("  use_custom_password = %t\n", c.UseCustomPassword)
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", l.LogLevel)
	ew.printf("  log_format = %q\n", l.LogFormat)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", n.ConnectTimeout)

	if n.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", n.UserAgent)
	}
}
