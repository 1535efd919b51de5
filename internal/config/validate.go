package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minPercentage       = 1
	maxPercentage       = 100
	minPBKDF2Iterations = 10_000
	minAESIVLength      = 12
	minDebounceMs       = 1000
	minConnectTimeout   = 1 * time.Second
)

// Validate checks all configuration values and returns all errors found. It
// accumulates every error rather than stopping at the first, so users see a
// complete report and can fix every issue in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateCapacity(&cfg.Capacity)...)
	errs = append(errs, validateSafety(&cfg.Safety)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	if s.AutoSyncDebounceMs != 0 && s.AutoSyncDebounceMs < minDebounceMs {
		errs = append(errs, fmt.Errorf("sync.auto_sync_debounce_ms: must be >= %d, got %d",
			minDebounceMs, s.AutoSyncDebounceMs))
	}

	if s.LastSyncTime < 0 {
		errs = append(errs, errors.New("sync.last_sync_time: must be non-negative"))
	}

	return errs
}

func validateCapacity(c *CapacityConfig) []error {
	var errs []error

	if c.PageMaxItems <= 0 {
		errs = append(errs, errors.New("capacity.page_max_items: must be positive"))
	}

	if c.PageMaxBytes <= 0 {
		errs = append(errs, errors.New("capacity.page_max_bytes: must be positive"))
	}

	if c.ShardFileLimit <= 0 {
		errs = append(errs, errors.New("capacity.shard_file_limit: must be positive"))
	}

	if c.ShardSizeLimit <= 0 {
		errs = append(errs, errors.New("capacity.shard_size_limit: must be positive"))
	}

	if c.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("capacity.media_max_bytes: must be positive"))
	}

	if c.TombstoneRetention != "" {
		if _, err := time.ParseDuration(c.TombstoneRetention); err != nil {
			errs = append(errs, fmt.Errorf("capacity.tombstone_retention: %w", err))
		}
	}

	if c.PBKDF2Iterations < minPBKDF2Iterations {
		errs = append(errs, fmt.Errorf("capacity.pbkdf2_iterations: must be >= %d, got %d",
			minPBKDF2Iterations, c.PBKDF2Iterations))
	}

	if c.AESIVLength != minAESIVLength {
		errs = append(errs, fmt.Errorf("capacity.aes_iv_length: must be %d, got %d",
			minAESIVLength, c.AESIVLength))
	}

	if c.RequestBatchMaxSize <= 0 {
		errs = append(errs, errors.New("capacity.request_batch_max_size: must be positive"))
	}

	if c.ShardConcurrency <= 0 {
		errs = append(errs, errors.New("capacity.shard_concurrency: must be positive"))
	}

	return errs
}

func validateSafety(s *SafetyConfig) []error {
	var errs []error

	if s.BulkDeletePercent < minPercentage || s.BulkDeletePercent > maxPercentage {
		errs = append(errs, fmt.Errorf("safety.bulk_delete_percent: must be in [%d, %d], got %v",
			minPercentage, maxPercentage, s.BulkDeletePercent))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	switch l.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.log_level: unknown level %q", l.LogLevel))
	}

	switch l.LogFormat {
	case "", "auto", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.log_format: unknown format %q", l.LogFormat))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	if n.ConnectTimeout != "" {
		d, err := time.ParseDuration(n.ConnectTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("network.connect_timeout: %w", err))
		} else if d < minConnectTimeout {
			errs = append(errs, fmt.Errorf("network.connect_timeout: must be >= %s", minConnectTimeout))
		}
	}

	return errs
}
