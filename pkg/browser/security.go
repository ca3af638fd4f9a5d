package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/rs/zerolog"
)

// SecurityValidator applies SecurityConfig to every navigation
type SecurityValidator struct {
	config  SecurityConfig
	allowed domainList
	blocked domainList
	logger  zerolog.Logger
}

// NewSecurityValidator creates a new security validator
func NewSecurityValidator(config SecurityConfig, logger zerolog.Logger) *SecurityValidator {
	return &SecurityValidator{
		config:  config,
		allowed: domainList(config.AllowedDomains),
		blocked: domainList(config.BlockedDomains),
		logger:  logger,
	}
}

type violation struct {
	kind    string
	message string
}

// ValidateURL rejects URLs the policy does not allow. Violations are
// logged as warnings.
func (sv *SecurityValidator) ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &BrowserError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("Invalid URL format: %s", rawURL),
			Err:     err,
		}
	}

	v := sv.check(u)
	if v == nil {
		return nil
	}

	sv.logger.Warn().
		Str("violation", v.kind).
		Str("url", rawURL).
		Msg("Security violation")

	details := map[string]interface{}{"url": rawURL}
	if host := u.Hostname(); host != "" {
		details["domain"] = host
	}
	return &BrowserError{Code: ErrCodeSecurity, Message: v.message, Details: details}
}

func (sv *SecurityValidator) check(u *url.URL) *violation {
	host := u.Hostname()

	switch {
	case u.Scheme == "about":
		return nil
	case u.Scheme == "file":
		if !sv.config.AllowFileUrls {
			return &violation{"file_url_blocked", "file:// URLs are not allowed"}
		}
		return nil
	case isLocalhost(host) && !sv.config.AllowLocalhostUrls:
		return &violation{"localhost_url_blocked", "localhost URLs are not allowed"}
	case len(sv.allowed) > 0 && !sv.allowed.contains(host):
		return &violation{"domain_not_allowed", fmt.Sprintf("Domain not in allowed list: %s", host)}
	case sv.blocked.contains(host):
		return &violation{"domain_blocked", fmt.Sprintf("Domain is blocked: %s", host)}
	}
	return nil
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	switch host {
	case "localhost", "::1", "0.0.0.0":
		return true
	}
	return strings.HasPrefix(host, "127.") || strings.HasPrefix(host, "localhost.")
}

// domainList holds host patterns: "edupage.org" matches exactly,
// "*.edupage.org" and ".edupage.org" also match every subdomain
type domainList []string

func (l domainList) contains(host string) bool {
	for _, pattern := range l {
		if domainMatches(host, pattern) {
			return true
		}
	}
	return false
}

func domainMatches(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)

	suffix := strings.TrimPrefix(strings.TrimPrefix(pattern, "*"), ".")
	if suffix == pattern {
		return host == pattern
	}
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// ValidateGotoOptions validates navigation options
func ValidateGotoOptions(opts automation.GotoOptions) error {
	switch opts.WaitUntil {
	case "", automation.LoadStateLoad, automation.LoadStateDOMContentLoaded, automation.LoadStateNetworkIdle:
	default:
		return &BrowserError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("Invalid wait condition: %s (must be 'load', 'domcontentloaded', or 'networkidle')", opts.WaitUntil),
		}
	}

	if opts.Timeout < 0 {
		return &BrowserError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("Navigation timeout must not be negative, got %s", opts.Timeout),
		}
	}

	return nil
}

// IsValidSelector checks if a selector is non-empty and free of markup
// injection
func IsValidSelector(selector string) bool {
	if strings.TrimSpace(selector) == "" {
		return false
	}

	dangerous := []string{"<script", "javascript:", "onerror=", "onload="}
	lowerSelector := strings.ToLower(selector)
	for _, pattern := range dangerous {
		if strings.Contains(lowerSelector, pattern) {
			return false
		}
	}

	return true
}

// ValidateCookieParams validates a cookie restored from a storage state
func ValidateCookieParams(cookie Cookie) error {
	if cookie.Name == "" {
		return &BrowserError{
			Code:    ErrCodeValidation,
			Message: "Cookie name is required",
		}
	}

	if cookie.Domain == "" {
		return &BrowserError{
			Code:    ErrCodeValidation,
			Message: "Cookie domain is required",
		}
	}

	if cookie.SameSite != "" {
		validSameSite := map[string]bool{
			"Strict": true,
			"Lax":    true,
			"None":   true,
		}
		if !validSameSite[cookie.SameSite] {
			return &BrowserError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("Invalid SameSite value: %s", cookie.SameSite),
			}
		}
	}

	return nil
}
