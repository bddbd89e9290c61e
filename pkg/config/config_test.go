package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/e8audit/pkg/config"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(config.EnvConfigPath, path)

	cfg := config.Default()
	require.NoError(t, cfg.Set("output_format", "json"))
	require.NoError(t, cfg.Set("FAIL_ON", "high"))
	require.NoError(t, config.SaveConfig(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "json", loaded.OutputFormat)
	assert.Equal(t, "high", loaded.FailOn)
	assert.Equal(t, "profiles", loaded.ProfilesDir)
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.OutputFormat)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [\n"), 0o600))

	_, err := config.LoadFile(path)
	assert.Error(t, err)
}

func TestSet_UnknownKey(t *testing.T) {
	err := config.Default().Set("api_key", "x")
	assert.ErrorContains(t, err, "unknown config key")
}
