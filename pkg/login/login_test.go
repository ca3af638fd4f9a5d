package login

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/automation/automationtest"
	"github.com/harun/edupilot/pkg/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://school.example"

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func setupFlow(t *testing.T, getenv func(string) string) (*Flow, *session.Store, *automationtest.Engine, *automationtest.Page) {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)

	flow, err := NewFlow(Config{
		BaseURL: base + "/",
		Launch:  automation.LaunchOptions{SlowMo: 200 * time.Millisecond},
		Timeout: 5 * time.Second,
		Store:   store,
		Logger:  zerolog.Nop(),
		Getenv:  getenv,
	})
	require.NoError(t, err)

	rec := automationtest.NewRecorder()
	engine := automationtest.NewEngine(rec)
	page := automationtest.NewPage(rec, "login")
	engine.Browser.Context.NewPageFunc = func() *automationtest.Page { return page }
	engine.Browser.Context.State = []byte(`{"cookies":[{"name":"PHPSESSID"}]}`)
	return flow, store, engine, page
}

var validEnv = env(map[string]string{EnvUsername: " novak@school.example ", EnvPassword: "s3cret"})

func TestCredentialsFromEnv(t *testing.T) {
	creds, err := CredentialsFromEnv(validEnv)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "novak@school.example", Password: "s3cret"}, creds)

	for _, values := range []map[string]string{
		{},
		{EnvUsername: "novak"},
		{EnvPassword: "s3cret"},
		{EnvUsername: "  ", EnvPassword: "s3cret"},
	} {
		_, err := CredentialsFromEnv(env(values))
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
}

func TestNewFlowValidation(t *testing.T) {
	store, err := session.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)

	_, err = NewFlow(Config{Store: store})
	assert.Error(t, err)
	_, err = NewFlow(Config{BaseURL: base})
	assert.Error(t, err)

	flow, err := NewFlow(Config{BaseURL: base, Store: store, Labels: Labels{Save: "Save"}})
	require.NoError(t, err)
	assert.Equal(t, "Save", flow.labels.Save)
	assert.Equal(t, DefaultLabels().Username, flow.labels.Username)
	assert.Equal(t, "/user/", flow.landingPath)
}

func TestLoginMissingCredentialsLaunchesNothing(t *testing.T) {
	flow, store, engine, _ := setupFlow(t, env(nil))

	_, _, err := flow.Login(context.Background(), engine)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Empty(t, engine.Launches)
	assert.Empty(t, engine.Rec.Events())
	assert.False(t, store.Exists())
}

func TestLoginPersistsSessionAndKeepsContextOpen(t *testing.T) {
	flow, store, engine, page := setupFlow(t, validEnv)

	browser, bctx, err := flow.Login(context.Background(), engine)
	require.NoError(t, err)
	assert.Same(t, engine.Browser, browser)
	assert.Same(t, engine.Browser.Context, bctx)
	assert.Equal(t, 0, engine.Browser.Closed)
	assert.Equal(t, 0, engine.Browser.Context.Closed)

	require.Len(t, engine.Launches, 1)
	assert.Equal(t, 200*time.Millisecond, engine.Launches[0].SlowMo)
	require.Len(t, engine.Browser.Contexts, 1)
	assert.Empty(t, engine.Browser.Contexts[0].StorageState, "login starts from an empty context")

	saved, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"cookies":[{"name":"PHPSESSID"}]}`, string(saved))

	assert.Equal(t, 5*time.Second, page.DefaultTimeout)
	assert.Equal(t, 5*time.Second, page.NavigationTimeout)

	user := automationtest.RoleKey("textbox", automation.RoleOptions{Name: "Uživatelské jméno:"})
	password := automationtest.RoleKey("textbox", automation.RoleOptions{Name: "Zadejte heslo:"})
	next := automationtest.RoleKey("button", automation.RoleOptions{Name: "Další"})
	remember := "label.mainlogin-block-checkbox >> nth=0"

	assert.Equal(t, []string{
		"login.goto " + base + "/",
		automationtest.RoleKey("link", automation.RoleOptions{Name: "Přihlásit se pomocí účtu"}) + ".click",
		user + ".fill novak@school.example",
		next + ".click",
		password + ".fill s3cret",
		next + ".click",
		remember + ".check",
		automationtest.RoleKey("button", automation.RoleOptions{Name: "Uložit"}) + ".click",
		"login.wait-for-url " + base + "/user/**",
		"context.storage-state",
	}, withoutWaits(engine.Rec.Events()))

	assert.True(t, page.Element("label.mainlogin-block-checkbox").Child("nth=0").Checked)
}

func TestLoginFailureReleasesEverything(t *testing.T) {
	t.Run("landing page never reached", func(t *testing.T) {
		flow, store, engine, page := setupFlow(t, validEnv)
		page.WaitForURLErr = errors.New("timeout")

		_, _, err := flow.Login(context.Background(), engine)
		require.Error(t, err)
		assert.ErrorIs(t, err, page.WaitForURLErr)
		assert.Equal(t, 1, engine.Browser.Context.Closed)
		assert.Equal(t, 1, engine.Browser.Closed)
		assert.False(t, store.Exists())
		assert.NotContains(t, engine.Rec.Events(), "context.storage-state")
	})

	t.Run("user name field never visible", func(t *testing.T) {
		flow, _, engine, page := setupFlow(t, validEnv)
		waitErr := errors.New("element not visible")
		page.Element(automationtest.RoleKey("textbox", automation.RoleOptions{Name: "Uživatelské jméno:"})).WaitErr = waitErr

		_, _, err := flow.Login(context.Background(), engine)
		assert.ErrorIs(t, err, waitErr)
		assert.Equal(t, 1, engine.Browser.Closed)
	})

	t.Run("storage state cannot be read", func(t *testing.T) {
		flow, store, engine, _ := setupFlow(t, validEnv)
		engine.Browser.Context.StateErr = errors.New("target closed")

		_, _, err := flow.Login(context.Background(), engine)
		require.Error(t, err)
		assert.Equal(t, 1, engine.Browser.Closed)
		assert.False(t, store.Exists())
	})

	t.Run("context creation fails", func(t *testing.T) {
		flow, _, engine, _ := setupFlow(t, validEnv)
		engine.Browser.NewContextErr = errors.New("boom")

		_, _, err := flow.Login(context.Background(), engine)
		require.Error(t, err)
		assert.Equal(t, 1, engine.Browser.Closed)
		assert.Equal(t, 0, engine.Browser.Context.Closed)
	})
}

func withoutWaits(events []string) []string {
	var out []string
	for _, e := range events {
		switch {
		case e == "engine.launch", e == "browser.new-context", e == "context.new-page":
		case strings.Contains(e, ".wait-for "), strings.Contains(e, ".set-default-"):
		default:
			out = append(out, e)
		}
	}
	return out
}
