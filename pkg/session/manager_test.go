package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/automation/automationtest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canary = "https://school.example/user/"

type stubAuth struct {
	calls   int
	browser automation.Browser
	bctx    automation.BrowsingContext
	err     error
}

func (a *stubAuth) Login(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error) {
	a.calls++
	return a.browser, a.bctx, a.err
}

func setupManager(t *testing.T, withRecord bool) (*Manager, *automationtest.Engine, *stubAuth) {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)
	if withRecord {
		require.NoError(t, store.Write([]byte(`{"cookies":[]}`)))
	}

	rec := automationtest.NewRecorder()
	engine := automationtest.NewEngine(rec)
	auth := &stubAuth{}

	mgr, err := NewManager(ManagerConfig{
		Engine:        engine,
		Store:         store,
		Authenticator: auth,
		CanaryURL:     canary,
		Launch:        automation.LaunchOptions{Headless: true},
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	return mgr, engine, auth
}

func redirectToLogin(engine *automationtest.Engine) {
	engine.Browser.Context.NewPageFunc = func() *automationtest.Page {
		p := automationtest.NewPage(engine.Rec, "probe")
		p.OnGoto = func(p *automationtest.Page, url string) error {
			p.CurrentURL = "https://school.example/login/?next=/user/"
			return nil
		}
		return p
	}
}

func TestNewManagerValidation(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)
	engine := automationtest.NewEngine(automationtest.NewRecorder())

	tests := []struct {
		name string
		cfg  ManagerConfig
	}{
		{"missing engine", ManagerConfig{Store: store, Authenticator: &stubAuth{}, CanaryURL: canary}},
		{"missing store", ManagerConfig{Engine: engine, Authenticator: &stubAuth{}, CanaryURL: canary}},
		{"missing authenticator", ManagerConfig{Engine: engine, Store: store, CanaryURL: canary}},
		{"missing canary", ManagerConfig{Engine: engine, Store: store, Authenticator: &stubAuth{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestHasSession(t *testing.T) {
	mgr, _, _ := setupManager(t, false)
	assert.False(t, mgr.HasSession())

	mgr, _, _ = setupManager(t, true)
	assert.True(t, mgr.HasSession())
}

func TestTryOpenSessionWithoutRecordLaunchesNothing(t *testing.T) {
	mgr, engine, _ := setupManager(t, false)

	valid, browser, bctx, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Nil(t, browser)
	assert.Nil(t, bctx)
	assert.Empty(t, engine.Launches)
	assert.Empty(t, engine.Rec.Events())
}

func TestTryOpenSessionValid(t *testing.T) {
	mgr, engine, _ := setupManager(t, true)

	valid, browser, bctx, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{SlowMo: 200})
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Same(t, engine.Browser, browser)
	assert.Same(t, engine.Browser.Context, bctx)

	assert.Equal(t, 0, engine.Browser.Closed)
	assert.Equal(t, 0, engine.Browser.Context.Closed)
	require.Len(t, engine.Browser.Contexts, 1)
	assert.Equal(t, `{"cookies":[]}`, string(engine.Browser.Contexts[0].StorageState))
	assert.Equal(t, []automation.LaunchOptions{{SlowMo: 200}}, engine.Launches)
	assert.Contains(t, engine.Rec.Events(), "page1.goto "+canary)
}

func TestTryOpenSessionInvalidClosesContextThenBrowser(t *testing.T) {
	mgr, engine, _ := setupManager(t, true)
	redirectToLogin(engine)

	valid, browser, bctx, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Nil(t, browser)
	assert.Nil(t, bctx)

	assert.Equal(t, 1, engine.Browser.Context.Closed)
	assert.Equal(t, 1, engine.Browser.Closed)
	assert.Equal(t, []string{"context.close", "browser.close"}, closeEvents(engine.Rec.Events()))
}

func TestTryOpenSessionNavigationErrorReleasesResources(t *testing.T) {
	mgr, engine, _ := setupManager(t, true)
	navErr := errors.New("net::ERR_NAME_NOT_RESOLVED")
	engine.Browser.Context.NewPageFunc = func() *automationtest.Page {
		p := automationtest.NewPage(engine.Rec, "probe")
		p.OnGoto = func(*automationtest.Page, string) error { return navErr }
		return p
	}

	_, _, _, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, navErr)
	assert.Equal(t, []string{"context.close", "browser.close"}, closeEvents(engine.Rec.Events()))
}

func TestTryOpenSessionContextErrorClosesBrowser(t *testing.T) {
	mgr, engine, _ := setupManager(t, true)
	engine.Browser.NewContextErr = errors.New("bad state")

	_, _, _, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, engine.Browser.Closed)
}

func TestNewContextReusesValidSession(t *testing.T) {
	mgr, engine, auth := setupManager(t, true)

	browser, bctx, err := mgr.NewContext(context.Background())
	require.NoError(t, err)
	assert.Same(t, engine.Browser, browser)
	assert.Same(t, engine.Browser.Context, bctx)
	assert.Equal(t, 0, auth.calls)
	assert.Equal(t, []automation.LaunchOptions{{Headless: true}}, engine.Launches)
}

func TestNewContextFallsBackToLogin(t *testing.T) {
	rec := automationtest.NewRecorder()
	loginBrowser := &automationtest.Browser{Rec: rec}
	loginCtx := &automationtest.Context{Rec: rec}

	t.Run("no record", func(t *testing.T) {
		mgr, engine, auth := setupManager(t, false)
		auth.browser, auth.bctx = loginBrowser, loginCtx

		browser, bctx, err := mgr.NewContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, auth.calls)
		assert.Same(t, loginBrowser, browser)
		assert.Same(t, loginCtx, bctx)
		assert.Empty(t, engine.Launches)
	})

	t.Run("expired record", func(t *testing.T) {
		mgr, engine, auth := setupManager(t, true)
		redirectToLogin(engine)
		auth.browser, auth.bctx = loginBrowser, loginCtx

		browser, bctx, err := mgr.NewContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, auth.calls)
		assert.Same(t, loginBrowser, browser)
		assert.Same(t, loginCtx, bctx)
		assert.Equal(t, 1, engine.Browser.Closed, "probe browser must be released")
	})

	t.Run("login error is not masked", func(t *testing.T) {
		mgr, _, auth := setupManager(t, false)
		loginErr := errors.New("missing credentials")
		auth.err = loginErr

		_, _, err := mgr.NewContext(context.Background())
		assert.Same(t, loginErr, err)
	})
}

func TestStatus(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		mgr, engine, _ := setupManager(t, false)
		st, err := mgr.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, st.Present)
		assert.False(t, st.Valid)
		assert.Empty(t, engine.Launches)
	})

	t.Run("valid is probed headless and released", func(t *testing.T) {
		mgr, engine, _ := setupManager(t, true)
		mgr.launch.Headless = false

		st, err := mgr.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, st.Present)
		assert.True(t, st.Valid)
		assert.False(t, st.ModTime.IsZero())
		assert.True(t, engine.Launches[0].Headless)
		assert.Equal(t, 1, engine.Browser.Closed)
		assert.Equal(t, 1, engine.Browser.Context.Closed)
	})
}

func TestClear(t *testing.T) {
	mgr, _, _ := setupManager(t, true)
	require.NoError(t, mgr.Clear())
	assert.False(t, mgr.HasSession())
}

func closeEvents(events []string) []string {
	var out []string
	for _, e := range events {
		if e == "context.close" || e == "browser.close" {
			out = append(out, e)
		}
	}
	return out
}

func TestOnProbeReportsExistingRecordsOnly(t *testing.T) {
	mgr, engine, _ := setupManager(t, false)
	var probes []bool
	mgr.onProbe = func(valid bool, err error) { probes = append(probes, valid) }

	_, _, _, err := mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.NoError(t, err)
	assert.Empty(t, probes)

	require.NoError(t, mgr.store.Write([]byte(`{}`)))
	redirectToLogin(engine)
	_, _, _, err = mgr.TryOpenSession(context.Background(), automation.LaunchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, probes)
}
