package config

// Default values for configuration options. These represent the "layer 0"
// of the override chain (defaults -> file -> env -> CLI flag) and match the
// capacity constants fixed by spec.md §6.5.
const (
	defaultAutoSyncDebounceMs = 30_000 // 30s, spec.md §4.1.5

	defaultPageMaxItems        = 500        // spec.md §6.5 PAGE_MAX_ITEMS
	defaultPageMaxBytes        = 900_000    // spec.md §6.5 PAGE_MAX_BYTES (~900 KB)
	defaultShardFileLimit      = 100        // spec.md §6.5 SHARD_FILE_LIMIT
	defaultShardSizeLimit      = 95_000_000 // spec.md §6.5 SHARD_SIZE_LIMIT (~95 MB)
	defaultMediaMaxBytes       = 50_000_000 // spec.md §6.5 MEDIA_MAX_BYTES
	defaultTombstoneRetention  = "720h"     // spec.md §6.5 TOMBSTONE_RETENTION (30 days)
	defaultPBKDF2Iterations    = 100_000    // spec.md §6.5 PBKDF2_ITERATIONS
	defaultAESIVLength         = 12         // spec.md §6.5 AES_IV_LEN
	defaultRequestBatchMaxSize = 8_000_000  // spec.md §6.1 8 MB PATCH body cap
	defaultShardConcurrency    = 3          // spec.md §5 recommended 2-4

	defaultBulkDeletePercent = 50.0 // spec.md §4.1.3(d)

	defaultLogLevel  = "info"
	defaultLogFormat = "auto"

	defaultConnectTimeout = "10s"
	defaultUserAgent      = "gistsync/0.1"
)

// DefaultConfig returns a Config populated with all default values. This is
// used both as the starting point for TOML decoding (so unset fields retain
// defaults) and as the fallback when no config file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Sync:     defaultSyncConfig(),
		Capacity: defaultCapacityConfig(),
		Safety:   defaultSafetyConfig(),
		Crypto:   defaultCryptoConfig(),
		Logging:  defaultLoggingConfig(),
		Network:  defaultNetworkConfig(),
	}
}

func defaultSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:            true,
		AutoSync:           true,
		AutoSyncDebounceMs: defaultAutoSyncDebounceMs,
	}
}

func defaultCapacityConfig() CapacityConfig {
	return CapacityConfig{
		PageMaxItems:        defaultPageMaxItems,
		PageMaxBytes:        defaultPageMaxBytes,
		ShardFileLimit:      defaultShardFileLimit,
		ShardSizeLimit:      defaultShardSizeLimit,
		MediaMaxBytes:       defaultMediaMaxBytes,
		TombstoneRetention:  defaultTombstoneRetention,
		PBKDF2Iterations:    defaultPBKDF2Iterations,
		AESIVLength:         defaultAESIVLength,
		RequestBatchMaxSize: defaultRequestBatchMaxSize,
		ShardConcurrency:    defaultShardConcurrency,
	}
}

func defaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		BulkDeletePercent: defaultBulkDeletePercent,
	}
}

func defaultCryptoConfig() CryptoConfig {
	return CryptoConfig{
		UseCustomPassword: false,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		UserAgent:      defaultUserAgent,
	}
}
