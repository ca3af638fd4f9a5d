package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.json", loader.GetConfigPath())
}

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file doesn't exist", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("EDUPILOT_DATA_DIR", tmpDir)

		cfg, err := Load(filepath.Join(tmpDir, "nonexistent.json"))
		require.NoError(t, err)

		assert.Equal(t, DefaultConfig().Portal, cfg.Portal)
		assert.Equal(t, tmpDir, cfg.DataDir)
		assert.Equal(t, filepath.Join(tmpDir, "auth.json"), cfg.Session.Path)
		assert.Equal(t, filepath.Join(tmpDir, "journal.db"), cfg.Runs.JournalPath)
		assert.Equal(t, filepath.Join(tmpDir, "screenshots"), cfg.Runs.ScreenshotDir)
		assert.Equal(t, filepath.Join(tmpDir, "edupilot.log"), cfg.Logging.File)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "edupilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{
			"portal": {"base_url": "https://school.example"},
			"browser": {"headless": true, "slow_mo_ms": 250},
			"create_task": {"category": "Test"},
			"data_dir": "`+filepath.ToSlash(tmpDir)+`"
		}`), 0644))

		cfg, err := Load(configPath)
		require.NoError(t, err)

		assert.Equal(t, "https://school.example", cfg.Portal.BaseURL)
		assert.Equal(t, "/user/", cfg.Portal.CanaryPath)
		assert.True(t, cfg.Browser.Headless)
		assert.Equal(t, 250, cfg.Browser.SlowMoMs)
		assert.Equal(t, 30000, cfg.Browser.WaitTimeoutMs)
		assert.Equal(t, "Test", cfg.CreateTask.Category)
		assert.Equal(t, "Informatika", cfg.CreateTask.Subject)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "edupilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"logging": {"level": "info"}}`), 0644))
		t.Setenv("EDUPILOT_DATA_DIR", tmpDir)
		t.Setenv("EDUPILOT_LOGGING_LEVEL", "debug")
		t.Setenv("EDUPILOT_BROWSER_HEADLESS", "true")

		cfg, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("schema violation", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "edupilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"browser": {"headless": "sometimes"}}`), 0644))

		_, err := Load(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), configPath)
	})

	t.Run("malformed json", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "edupilot.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{`), 0644))

		_, err := Load(configPath)
		assert.Error(t, err)
	})
}

func TestLoaderSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "edupilot.json")
	loader := NewLoader(configPath)

	cfg := DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Portal.BaseURL = "https://school.example"
	cfg.Keepalive.Schedule = "@every 2h"
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://school.example", loaded.Portal.BaseURL)
	assert.Equal(t, "@every 2h", loaded.Keepalive.Schedule)
	assert.Equal(t, tmpDir, loaded.DataDir)
}
