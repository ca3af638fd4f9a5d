package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/rs/zerolog"
)

// Config configures the rod engine
type Config struct {
	ChromePath string `json:"chromePath,omitempty"`
	NoSandbox  bool   `json:"noSandbox"`
	// ActionTimeout is the page default for actions and waits
	ActionTimeout time.Duration `json:"actionTimeout"`
	// NavigationTimeout is the page default for navigation
	NavigationTimeout time.Duration `json:"navigationTimeout"`
	Security          SecurityConfig `json:"security"`
	Logger            zerolog.Logger `json:"-"`
}

// DefaultConfig returns engine defaults
func DefaultConfig() Config {
	return Config{
		ActionTimeout:     30 * time.Second,
		NavigationTimeout: 30 * time.Second,
		Logger:            zerolog.Nop(),
	}
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowFileUrls      bool     `json:"allowFileUrls"`
	AllowLocalhostUrls bool     `json:"allowLocalhostUrls"`
	AllowedDomains     []string `json:"allowedDomains,omitempty"`
	BlockedDomains     []string `json:"blockedDomains,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// NameValue is one local storage entry
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OriginState holds the local storage of one origin
type OriginState struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// StorageState is the serialized form of a browsing context
type StorageState struct {
	Cookies []Cookie      `json:"cookies"`
	Origins []OriginState `json:"origins"`
}

// Error types
type BrowserError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *BrowserError) Error() string {
	return e.Message
}

func (e *BrowserError) Unwrap() error {
	return e.Err
}

// Is lets timeouts match automation.ErrTimeout.
func (e *BrowserError) Is(target error) bool {
	return target == automation.ErrTimeout && e.Code == ErrCodeTimeout
}

// Error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNavigation      = "NAVIGATION_ERROR"
	ErrCodeTimeout         = "TIMEOUT_ERROR"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeScriptExecution = "SCRIPT_EXECUTION_ERROR"
	ErrCodeSecurity        = "SECURITY_ERROR"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
)

// newError builds a BrowserError, reclassifying deadline errors as timeouts.
func newError(code string, err error, format string, args ...interface{}) *BrowserError {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		code = ErrCodeTimeout
	}
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &BrowserError{Code: code, Message: msg, Err: err}
}

// IsTimeout reports whether err is a timeout from this package.
func IsTimeout(err error) bool {
	return errors.Is(err, automation.ErrTimeout)
}
