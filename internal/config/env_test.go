package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_AllUnset(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvGistID, "")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Empty(t, overrides.Token)
	assert.Empty(t, overrides.GistID)
}

func TestReadEnvOverrides_AllSet(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/cfg.toml")
	t.Setenv(EnvToken, "ghp_abc")
	t.Setenv(EnvGistID, "gist123")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/tmp/cfg.toml", overrides.ConfigPath)
	assert.Equal(t, "ghp_abc", overrides.Token)
	assert.Equal(t, "gist123", overrides.GistID)
}
