package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIsolatedLoader avoids the global viper instance so tests cannot leak
// state into each other.
func newIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.NotNil(t, loader.v)
}

func TestLoader_LoadWithFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keva.yaml")
	yamlContent := `
log_level: debug
verbose: true
server:
  host: 0.0.0.0
  port: 9090
  api_key: sekrit
store:
  data_dir: /var/lib/keva
tracking:
  enabled: true
`
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o644))

	cfg, err := newIsolatedLoader().LoadWithFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)
	assert.Equal(t, "/var/lib/keva", cfg.Store.DataDir)
	assert.True(t, cfg.Tracking.Enabled)

	// Unspecified settings fall back to defaults.
	assert.Equal(t, DefaultConfig().Server.TimeoutSec, cfg.Server.TimeoutSec)
}

func TestLoader_LoadWithFile_Missing(t *testing.T) {
	_, err := newIsolatedLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoader_LoadWithFile_InvalidValues(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "keva.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: -1\n"), 0o644))

	_, err := newIsolatedLoader().LoadWithFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	t.Setenv("KEVA_SERVER_PORT", "7070")
	t.Setenv("KEVA_TRACKING_ENABLED", "true")

	configFile := filepath.Join(t.TempDir(), "keva.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log_level: info\n"), 0o644))

	cfg, err := newIsolatedLoader().LoadWithFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Tracking.Enabled)
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "/etc/keva")
}
