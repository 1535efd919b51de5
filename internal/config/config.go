// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for gistsync.
package config

// Config is the top-level configuration structure, serialized as
// config.toml alongside the local state database.
type Config struct {
	Sync     SyncConfig     `toml:"sync"`
	Capacity CapacityConfig `toml:"capacity"`
	Safety   SafetyConfig   `toml:"safety"`
	Crypto   CryptoConfig   `toml:"crypto"`
	Logging  LoggingConfig  `toml:"logging"`
	Network  NetworkConfig  `toml:"network"`
}

// SyncConfig controls the reconciliation engine (spec.md §6.4).
type SyncConfig struct {
	Enabled            bool   `toml:"enabled"`
	AutoSync           bool   `toml:"auto_sync"`
	AutoSyncDebounceMs int    `toml:"auto_sync_debounce_ms"`
	GistID             string `toml:"gist_id"`
	LastSyncTime       int64  `toml:"last_sync_time"` // 0 means never synced
	LastSyncDeviceID   string `toml:"last_sync_device_id"`
	DeviceID           string `toml:"device_id"`
}

// CapacityConfig holds the capacity constants from spec.md §6.5. These are
// contracts, not tuning knobs — changing them requires a format version
// bump — but are represented in config so tests can override them without
// recompiling.
type CapacityConfig struct {
	PageMaxItems        int    `toml:"page_max_items"`
	PageMaxBytes        int64  `toml:"page_max_bytes"`
	ShardFileLimit      int    `toml:"shard_file_limit"`
	ShardSizeLimit      int64  `toml:"shard_size_limit"`
	MediaMaxBytes       int64  `toml:"media_max_bytes"`
	TombstoneRetention  string `toml:"tombstone_retention"` // duration string, e.g. "720h"
	PBKDF2Iterations    int    `toml:"pbkdf2_iterations"`
	AESIVLength         int    `toml:"aes_iv_length"`
	RequestBatchMaxSize int64  `toml:"request_batch_max_size"` // max aggregate PATCH body size
	ShardConcurrency    int    `toml:"shard_concurrency"`
}

// SafetyConfig controls the reconciler's safety gate (spec.md §4.1.3).
type SafetyConfig struct {
	BulkDeletePercent float64 `toml:"bulk_delete_percent"`
}

// CryptoConfig controls envelope encryption defaults (spec.md §4.2).
type CryptoConfig struct {
	UseCustomPassword bool `toml:"use_custom_password"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior against the Gist API.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	UserAgent      string `toml:"user_agent"`
}
