package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/rs/zerolog"
)

// DefaultLoginMarker is the substring that identifies the portal's login
// page in a URL.
const DefaultLoginMarker = "login"

// Authenticator performs an interactive login and persists the resulting
// record before handing back the still-open browser and context.
type Authenticator interface {
	Login(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error)

func (f AuthenticatorFunc) Login(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error) {
	return f(ctx, engine)
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Engine        automation.Engine
	Store         *Store
	Authenticator Authenticator
	// CanaryURL is a page only reachable while logged in.
	CanaryURL string
	// LoginMarker defaults to DefaultLoginMarker.
	LoginMarker string
	// Launch is used by NewContext's probe.
	Launch automation.LaunchOptions
	// OnProbe, when set, is called after every probe of an existing record.
	OnProbe func(valid bool, err error)
	Logger  zerolog.Logger
}

// Manager validates and, when needed, re-establishes the portal session.
type Manager struct {
	engine      automation.Engine
	store       *Store
	auth        Authenticator
	canaryURL   string
	loginMarker string
	launch      automation.LaunchOptions
	onProbe     func(valid bool, err error)
	logger      zerolog.Logger
}

// Status describes the stored session as seen by a probe.
type Status struct {
	Path    string    `json:"path"`
	Present bool      `json:"present"`
	Valid   bool      `json:"valid"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Engine == nil {
		return nil, errors.New("automation engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if cfg.CanaryURL == "" {
		return nil, errors.New("canary URL is required")
	}

	marker := cfg.LoginMarker
	if marker == "" {
		marker = DefaultLoginMarker
	}

	return &Manager{
		engine:      cfg.Engine,
		store:       cfg.Store,
		auth:        cfg.Authenticator,
		canaryURL:   cfg.CanaryURL,
		loginMarker: marker,
		launch:      cfg.Launch,
		onProbe:     cfg.OnProbe,
		logger:      cfg.Logger.With().Str("component", "session").Logger(),
	}, nil
}

// HasSession reports whether a session record exists. It does not say
// anything about validity.
func (m *Manager) HasSession() bool {
	return m.store.Exists()
}

// TryOpenSession launches a browser with the stored record and navigates to
// the canary URL. When the portal redirects to its login page, the context
// and browser are closed and valid is false. Without a record nothing is
// launched.
func (m *Manager) TryOpenSession(ctx context.Context, opts automation.LaunchOptions) (bool, automation.Browser, automation.BrowsingContext, error) {
	if !m.HasSession() {
		m.logger.Debug().Str("path", m.store.Path()).Msg("No session record")
		return false, nil, nil, nil
	}

	valid, browser, bctx, err := m.probe(ctx, opts)
	if m.onProbe != nil {
		m.onProbe(valid, err)
	}
	return valid, browser, bctx, err
}

func (m *Manager) probe(ctx context.Context, opts automation.LaunchOptions) (bool, automation.Browser, automation.BrowsingContext, error) {

	state, err := m.store.Read()
	if err != nil {
		return false, nil, nil, err
	}

	browser, err := m.engine.Launch(ctx, opts)
	if err != nil {
		return false, nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(automation.ContextOptions{StorageState: state})
	if err != nil {
		m.closeBrowser(browser)
		return false, nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		m.closeAll(browser, bctx)
		return false, nil, nil, fmt.Errorf("failed to open probe page: %w", err)
	}

	if err := page.Goto(m.canaryURL, automation.GotoOptions{WaitUntil: automation.LoadStateLoad}); err != nil {
		m.closeAll(browser, bctx)
		return false, nil, nil, fmt.Errorf("failed to probe session: %w", err)
	}

	if landed := page.URL(); strings.Contains(landed, m.loginMarker) {
		m.logger.Info().Str("url", landed).Msg("Session expired")
		m.closeAll(browser, bctx)
		return false, nil, nil, nil
	}

	m.logger.Debug().Str("url", page.URL()).Msg("Session is valid")
	return true, browser, bctx, nil
}

// NewContext returns an authenticated browser and context, reusing the
// stored session when it is still valid and logging in otherwise.
func (m *Manager) NewContext(ctx context.Context) (automation.Browser, automation.BrowsingContext, error) {
	valid, browser, bctx, err := m.TryOpenSession(ctx, m.launch)
	if err != nil {
		return nil, nil, err
	}
	if valid {
		return browser, bctx, nil
	}

	m.logger.Info().Msg("Logging in to refresh session")
	return m.auth.Login(ctx, m.engine)
}

// Status probes the stored session headlessly and releases everything it
// opened.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{Path: m.store.Path(), Present: m.HasSession()}
	if !st.Present {
		return st, nil
	}
	if mod, err := m.store.ModTime(); err == nil {
		st.ModTime = mod
	}

	opts := m.launch
	opts.Headless = true
	valid, browser, bctx, err := m.TryOpenSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	if valid {
		m.closeAll(browser, bctx)
	}
	st.Valid = valid
	return st, nil
}

// Clear deletes the stored record.
func (m *Manager) Clear() error {
	return m.store.Remove()
}

func (m *Manager) closeAll(browser automation.Browser, bctx automation.BrowsingContext) {
	if err := bctx.Close(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to close browsing context")
	}
	m.closeBrowser(browser)
}

func (m *Manager) closeBrowser(browser automation.Browser) {
	if err := browser.Close(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to close browser")
	}
}
