// Package login signs in to the portal with credentials from the
// environment and persists the resulting session record.
package login

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/harun/edupilot/pkg/session"
	"github.com/rs/zerolog"
)

// Environment variables holding the portal credentials.
const (
	EnvUsername = "EDUPAGE_USERNAME"
	EnvPassword = "EDUPAGE_PASSWORD"
)

// ErrMissingCredentials is returned before any browser is launched when
// either credential variable is unset.
var ErrMissingCredentials = errors.New("missing EDUPAGE_USERNAME or EDUPAGE_PASSWORD")

// Credentials for the portal account
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads the credentials through getenv.
func CredentialsFromEnv(getenv func(string) string) (Credentials, error) {
	c := Credentials{
		Username: strings.TrimSpace(getenv(EnvUsername)),
		Password: getenv(EnvPassword),
	}
	if c.Username == "" || c.Password == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return c, nil
}

// Labels are the accessible names of the login form controls.
type Labels struct {
	AccountLink string `json:"account_link" mapstructure:"account_link"`
	Username    string `json:"username" mapstructure:"username"`
	Password    string `json:"password" mapstructure:"password"`
	Next        string `json:"next" mapstructure:"next"`
	// RememberMe is a CSS selector; the first match is checked.
	RememberMe string `json:"remember_me" mapstructure:"remember_me"`
	Save       string `json:"save" mapstructure:"save"`
}

// DefaultLabels returns the labels of the Czech portal UI.
func DefaultLabels() Labels {
	return Labels{
		AccountLink: "Přihlásit se pomocí účtu",
		Username:    "Uživatelské jméno:",
		Password:    "Zadejte heslo:",
		Next:        "Další",
		RememberMe:  "label.mainlogin-block-checkbox",
		Save:        "Uložit",
	}
}

// Config wires a Flow.
type Config struct {
	// BaseURL is the portal root, e.g. https://1itg.edupage.org
	BaseURL string
	// LandingPath is where a successful login ends up; defaults to /user/.
	LandingPath string
	Labels      Labels
	Launch      automation.LaunchOptions
	// Timeout bounds every wait and navigation of the flow.
	Timeout time.Duration
	Store   *session.Store
	Logger  zerolog.Logger
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Flow drives the portal login form.
type Flow struct {
	baseURL     string
	landingPath string
	labels      Labels
	launch      automation.LaunchOptions
	timeout     time.Duration
	store       *session.Store
	logger      zerolog.Logger
	getenv      func(string) string
}

var _ session.Authenticator = (*Flow)(nil)

// NewFlow creates a login flow.
func NewFlow(cfg Config) (*Flow, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("portal base URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}

	labels := cfg.Labels
	defaults := DefaultLabels()
	if labels.AccountLink == "" {
		labels.AccountLink = defaults.AccountLink
	}
	if labels.Username == "" {
		labels.Username = defaults.Username
	}
	if labels.Password == "" {
		labels.Password = defaults.Password
	}
	if labels.Next == "" {
		labels.Next = defaults.Next
	}
	if labels.RememberMe == "" {
		labels.RememberMe = defaults.RememberMe
	}
	if labels.Save == "" {
		labels.Save = defaults.Save
	}

	landing := cfg.LandingPath
	if landing == "" {
		landing = "/user/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	return &Flow{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		landingPath: landing,
		labels:      labels,
		launch:      cfg.Launch,
		timeout:     timeout,
		store:       cfg.Store,
		logger:      cfg.Logger.With().Str("component", "login").Logger(),
		getenv:      getenv,
	}, nil
}

// Login signs in with a fresh context, writes the session record and
// returns the still-open browser and context. On failure everything it
// opened is closed.
func (f *Flow) Login(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error) {
	creds, err := CredentialsFromEnv(f.getenv)
	if err != nil {
		return nil, nil, err
	}

	browser, err := engine.Launch(ctx, f.launch)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(automation.ContextOptions{})
	if err != nil {
		f.release(browser, nil)
		return nil, nil, fmt.Errorf("failed to create browsing context: %w", err)
	}

	if err := f.signIn(bctx, creds); err != nil {
		f.release(browser, bctx)
		return nil, nil, err
	}

	state, err := bctx.StorageState()
	if err != nil {
		f.release(browser, bctx)
		return nil, nil, fmt.Errorf("failed to capture session: %w", err)
	}
	if err := f.store.Write(state); err != nil {
		f.release(browser, bctx)
		return nil, nil, err
	}

	f.logger.Info().Str("path", f.store.Path()).Msg("Login successful, session saved")
	return browser, bctx, nil
}

func (f *Flow) signIn(bctx automation.BrowsingContext, creds Credentials) error {
	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	page.SetDefaultTimeout(f.timeout)
	page.SetDefaultNavigationTimeout(f.timeout)
	ui := readiness.WrapPage(page, f.timeout)

	f.logger.Debug().Str("url", f.baseURL).Msg("Opening portal")
	if err := ui.Goto(f.baseURL+"/", automation.GotoOptions{WaitUntil: automation.LoadStateDOMContentLoaded}); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}

	if err := ui.GetByRole("link", automation.RoleOptions{Name: f.labels.AccountLink}).Click(); err != nil {
		return fmt.Errorf("failed to open account login: %w", err)
	}

	if err := f.fillField(ui, f.labels.Username, creds.Username); err != nil {
		return fmt.Errorf("failed to enter user name: %w", err)
	}
	if err := ui.GetByRole("button", automation.RoleOptions{Name: f.labels.Next}).Click(); err != nil {
		return fmt.Errorf("failed to submit user name: %w", err)
	}

	if err := f.fillField(ui, f.labels.Password, creds.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := ui.GetByRole("button", automation.RoleOptions{Name: f.labels.Next}).Click(); err != nil {
		return fmt.Errorf("failed to submit password: %w", err)
	}

	remember := ui.Locator(f.labels.RememberMe).First()
	if err := readiness.Expect(remember).WithTimeout(f.timeout).ToBeVisible(); err != nil {
		return fmt.Errorf("remember-me option did not appear: %w", err)
	}
	if err := remember.Check(); err != nil {
		return fmt.Errorf("failed to tick remember-me: %w", err)
	}
	if err := ui.GetByRole("button", automation.RoleOptions{Name: f.labels.Save}).Click(); err != nil {
		return fmt.Errorf("failed to confirm login: %w", err)
	}

	landing := f.baseURL + f.landingPath + "**"
	if err := ui.WaitForURL(landing, f.timeout); err != nil {
		return fmt.Errorf("login did not reach %s: %w", landing, err)
	}
	f.logger.Debug().Str("url", ui.URL()).Msg("Reached landing page")
	return nil
}

func (f *Flow) fillField(ui readiness.Page, name, value string) error {
	field := ui.GetByRole("textbox", automation.RoleOptions{Name: name})
	if err := readiness.Expect(field).WithTimeout(f.timeout).ToBeVisible(); err != nil {
		return err
	}
	return field.Fill(value)
}

// release closes the context (when there is one) and then the browser.
func (f *Flow) release(browser automation.Browser, bctx automation.BrowsingContext) {
	if bctx != nil {
		if err := bctx.Close(); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to close browsing context")
		}
	}
	if err := browser.Close(); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to close browser")
	}
}
