package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config represents the edupilot configuration
type Config struct {
	// Portal
	Portal PortalConfig `json:"portal" mapstructure:"portal"`

	// Session record
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Browser
	Browser BrowserConfig `json:"browser" mapstructure:"browser"`

	// Run history and failure screenshots
	Runs RunsConfig `json:"runs" mapstructure:"runs"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Keepalive
	Keepalive KeepaliveConfig `json:"keepalive" mapstructure:"keepalive"`

	// Defaults for the create-task command
	CreateTask CreateTaskConfig `json:"create_task" mapstructure:"create_task"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// PortalConfig locates the portal and the pages scenarios read from
type PortalConfig struct {
	BaseURL     string `json:"base_url" mapstructure:"base_url"`
	CanaryPath  string `json:"canary_path" mapstructure:"canary_path"`
	LoginMarker string `json:"login_marker" mapstructure:"login_marker"`

	Login LoginLabels `json:"login" mapstructure:"login"`

	GradesRowSelector    string `json:"grades_row_selector" mapstructure:"grades_row_selector"`
	TimetableRowSelector string `json:"timetable_row_selector" mapstructure:"timetable_row_selector"`
}

// LoginLabels are the accessible names of the login form. Empty values
// fall back to the Czech UI labels.
type LoginLabels struct {
	AccountLink string `json:"account_link" mapstructure:"account_link"`
	Username    string `json:"username" mapstructure:"username"`
	Password    string `json:"password" mapstructure:"password"`
	Next        string `json:"next" mapstructure:"next"`
	RememberMe  string `json:"remember_me" mapstructure:"remember_me"`
	Save        string `json:"save" mapstructure:"save"`
}

// SessionConfig holds the session record location
type SessionConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// BrowserConfig holds Chrome launch settings
type BrowserConfig struct {
	Headless            bool           `json:"headless" mapstructure:"headless"`
	SlowMoMs            int            `json:"slow_mo_ms" mapstructure:"slow_mo_ms"`
	WaitTimeoutMs       int            `json:"wait_timeout_ms" mapstructure:"wait_timeout_ms"`
	NavigationTimeoutMs int            `json:"navigation_timeout_ms" mapstructure:"navigation_timeout_ms"`
	NoSandbox           bool           `json:"no_sandbox" mapstructure:"no_sandbox"`
	ChromePath          string         `json:"chrome_path" mapstructure:"chrome_path"`
	Security            SecurityConfig `json:"security" mapstructure:"security"`
}

// SecurityConfig restricts which URLs the browser may open
type SecurityConfig struct {
	AllowFileUrls      bool     `json:"allow_file_urls" mapstructure:"allow_file_urls"`
	AllowLocalhostUrls bool     `json:"allow_localhost_urls" mapstructure:"allow_localhost_urls"`
	AllowedDomains     []string `json:"allowed_domains,omitempty" mapstructure:"allowed_domains"`
	BlockedDomains     []string `json:"blocked_domains,omitempty" mapstructure:"blocked_domains"`
}

// RunsConfig holds run bookkeeping settings
type RunsConfig struct {
	ScreenshotDir string `json:"screenshot_dir" mapstructure:"screenshot_dir"`
	JournalPath   string `json:"journal_path" mapstructure:"journal_path"`
	// RetentionDays prunes journal entries older than this; 0 keeps all.
	RetentionDays int `json:"retention_days" mapstructure:"retention_days"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	// Textfile is written after every run when set
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

// KeepaliveConfig holds the session revalidation schedule
type KeepaliveConfig struct {
	Schedule   string `json:"schedule" mapstructure:"schedule"`
	TimeoutSec int    `json:"timeout_sec" mapstructure:"timeout_sec"`
}

// CreateTaskConfig holds create-task defaults
type CreateTaskConfig struct {
	Subject  string `json:"subject" mapstructure:"subject"`
	Category string `json:"category" mapstructure:"category"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"`
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:              "https://1itg.edupage.org",
			CanaryPath:           "/user/",
			LoginMarker:          "login",
			GradesRowSelector:    "table.znamkyTable tr",
			TimetableRowSelector: "table.timetable tr",
		},
		Browser: BrowserConfig{
			Headless:            false,
			WaitTimeoutMs:       30000,
			NavigationTimeoutMs: 30000,
		},
		Runs: RunsConfig{
			RetentionDays: 90,
		},
		Keepalive: KeepaliveConfig{
			Schedule:   "0 6 * * 1-5",
			TimeoutSec: 300,
		},
		CreateTask: CreateTaskConfig{
			Subject: "Informatika",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// CanaryURL is the page probed to tell a live session from an expired one
func (c *Config) CanaryURL() string {
	return strings.TrimRight(c.Portal.BaseURL, "/") + c.Portal.CanaryPath
}

// WaitTimeout is the readiness wait applied to every action
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Browser.WaitTimeoutMs) * time.Millisecond
}

// NavigationTimeout bounds page navigations
func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Browser.NavigationTimeoutMs) * time.Millisecond
}

// SlowMo delays every browser operation, useful to watch a run
func (c *Config) SlowMo() time.Duration {
	return time.Duration(c.Browser.SlowMoMs) * time.Millisecond
}

// KeepaliveTimeout bounds one scheduled session check
func (c *Config) KeepaliveTimeout() time.Duration {
	return time.Duration(c.Keepalive.TimeoutSec) * time.Second
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("portal base_url must be an absolute URL: %q", c.Portal.BaseURL)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("portal base_url must use http or https: %q", c.Portal.BaseURL)
	}
	if !strings.HasPrefix(c.Portal.CanaryPath, "/") {
		return fmt.Errorf("portal canary_path must start with '/': %q", c.Portal.CanaryPath)
	}
	if c.Portal.LoginMarker == "" {
		return fmt.Errorf("portal login_marker cannot be empty")
	}

	if c.Browser.WaitTimeoutMs <= 0 {
		return fmt.Errorf("browser wait_timeout_ms must be positive")
	}
	if c.Browser.NavigationTimeoutMs <= 0 {
		return fmt.Errorf("browser navigation_timeout_ms must be positive")
	}
	if c.Browser.SlowMoMs < 0 {
		return fmt.Errorf("browser slow_mo_ms cannot be negative")
	}

	if c.Runs.RetentionDays < 0 {
		return fmt.Errorf("runs retention_days cannot be negative")
	}

	if c.Keepalive.TimeoutSec <= 0 {
		return fmt.Errorf("keepalive timeout_sec must be positive")
	}

	validator := NewValidator()
	if err := validator.ValidateSchedule(c.Keepalive.Schedule); err != nil {
		return err
	}
	if err := validator.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}
