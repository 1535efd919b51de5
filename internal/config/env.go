package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig = "GISTSYNC_CONFIG"
	EnvToken  = "GISTSYNC_TOKEN"
	EnvGistID = "GISTSYNC_GIST_ID"
)

// EnvOverrides holds values derived from environment variables. These are
// resolved by ReadEnvOverrides and applied by callers; they never mutate
// Config directly.
type EnvOverrides struct {
	ConfigPath string // GISTSYNC_CONFIG: override config file path
	Token      string // GISTSYNC_TOKEN: GitHub API token, bypasses the token store
	GistID     string // GISTSYNC_GIST_ID: override the configured sync Gist
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Token:      os.Getenv(EnvToken),
		GistID:     os.Getenv(EnvGistID),
	}
}
