package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. EDUPILOT_LOGGING_LEVEL
	EnvPrefix = "EDUPILOT"

	dirName  = ".edupilot"
	fileName = "edupilot.json"
)

// envKeys can be overridden from the environment even when the config
// file does not mention them
var envKeys = []string{
	"portal.base_url",
	"session.path",
	"browser.headless",
	"browser.slow_mo_ms",
	"browser.wait_timeout_ms",
	"browser.no_sandbox",
	"browser.chrome_path",
	"runs.screenshot_dir",
	"runs.journal_path",
	"metrics.textfile",
	"keepalive.schedule",
	"logging.level",
	"logging.file",
	"data_dir",
}

// Loader handles configuration loading
type Loader struct {
	configPath string
	validator  *Validator
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		validator:  NewValidator(),
	}
}

// Load reads the config file if present, applies environment overrides
// and fills in the paths derived from the data directory
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := l.validator.ValidateDocument(data); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.derivePaths(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) derivePaths(cfg *Config) error {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, dirName)
	}

	if cfg.Session.Path == "" {
		cfg.Session.Path = filepath.Join(cfg.DataDir, "auth.json")
	}
	if cfg.Runs.JournalPath == "" {
		cfg.Runs.JournalPath = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.Runs.ScreenshotDir == "" {
		cfg.Runs.ScreenshotDir = filepath.Join(cfg.DataDir, "screenshots")
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "edupilot.log")
	}

	return nil
}

// Save writes cfg to the config file, creating its directory
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("portal", cfg.Portal)
	v.Set("session", cfg.Session)
	v.Set("browser", cfg.Browser)
	v.Set("runs", cfg.Runs)
	v.Set("metrics", cfg.Metrics)
	v.Set("keepalive", cfg.Keepalive)
	v.Set("create_task", cfg.CreateTask)
	v.Set("logging", cfg.Logging)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	p, err := l.path()
	if err != nil {
		return ""
	}
	return p
}

func (l *Loader) path() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
