package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RejectsBulkDeletePercentOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Safety.BulkDeletePercent = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "safety.bulk_delete_percent")
}

func TestValidate_RejectsLowPBKDF2Iterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity.PBKDF2Iterations = 100

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pbkdf2_iterations")
}

func TestValidate_RejectsWrongAESIVLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity.AESIVLength = 16

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aes_iv_length")
}

func TestValidate_RejectsNonPositiveCapacityFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity.PageMaxItems = 0
	cfg.Capacity.PageMaxBytes = -1
	cfg.Capacity.ShardFileLimit = 0
	cfg.Capacity.ShardSizeLimit = 0
	cfg.Capacity.MediaMaxBytes = 0
	cfg.Capacity.RequestBatchMaxSize = 0
	cfg.Capacity.ShardConcurrency = 0

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "page_max_items")
	assert.Contains(t, err.Error(), "page_max_bytes")
	assert.Contains(t, err.Error(), "shard_file_limit")
	assert.Contains(t, err.Error(), "shard_size_limit")
	assert.Contains(t, err.Error(), "media_max_bytes")
	assert.Contains(t, err.Error(), "request_batch_max_size")
	assert.Contains(t, err.Error(), "shard_concurrency")
}

func TestValidate_RejectsInvalidTombstoneRetention(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity.TombstoneRetention = "not-a-duration"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tombstone_retention")
}

func TestValidate_RejectsLowDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.AutoSyncDebounceMs = 10

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "auto_sync_debounce_ms")
}

func TestValidate_AllowsZeroDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.AutoSyncDebounceMs = 0

	assert.NoError(t, Validate(cfg))
}

func TestValidate_RejectsNegativeLastSyncTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.LastSyncTime = -1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "last_sync_time")
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogLevel = "verbose"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogFormat = "xml"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestValidate_RejectsShortConnectTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.ConnectTimeout = "100ms"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout")
}

func TestValidate_RejectsInvalidConnectTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.ConnectTimeout = "soon"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout")
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Safety.BulkDeletePercent = 0
	cfg.Logging.LogLevel = "bogus"
	cfg.Capacity.AESIVLength = 1

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bulk_delete_percent")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "aes_iv_length")
}
