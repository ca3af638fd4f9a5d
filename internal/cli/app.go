package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harun/edupilot/internal/config"
	"github.com/harun/edupilot/internal/logger"
	"github.com/harun/edupilot/internal/metrics"
	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/browser"
	"github.com/harun/edupilot/pkg/journal"
	"github.com/harun/edupilot/pkg/login"
	"github.com/harun/edupilot/pkg/runner"
	"github.com/harun/edupilot/pkg/scenario"
	"github.com/harun/edupilot/pkg/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newEngine builds the automation engine. Tests replace it with a fake.
var newEngine = func(cfg *config.Config, logger zerolog.Logger) automation.Engine {
	sec := cfg.Browser.Security
	return browser.NewEngine(browser.Config{
		ChromePath:        cfg.Browser.ChromePath,
		NoSandbox:         cfg.Browser.NoSandbox,
		ActionTimeout:     cfg.WaitTimeout(),
		NavigationTimeout: cfg.NavigationTimeout(),
		Security: browser.SecurityConfig{
			AllowFileUrls:      sec.AllowFileUrls,
			AllowLocalhostUrls: sec.AllowLocalhostUrls,
			AllowedDomains:     sec.AllowedDomains,
			BlockedDomains:     sec.BlockedDomains,
		},
		Logger: logger,
	})
}

// app holds what every command needs, built from the global flags
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	logger  zerolog.Logger
	metrics *metrics.Metrics
	store   *session.Store
	journal *journal.Journal
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if r := log.Redactor(); r != nil {
		r.AddSecret(os.Getenv(login.EnvPassword))
	}

	store, err := session.NewStore(cfg.Session.Path)
	if err != nil {
		log.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		logger:  log.GetZerolog(),
		metrics: metrics.NewMetrics(),
		store:   store,
	}, nil
}

// openJournal opens the run journal on first use
func (a *app) openJournal() (*journal.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	j, err := journal.Open(a.cfg.Runs.JournalPath, a.logger)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close journal")
		}
	}
	a.writeMetrics()
	a.log.Close()
}

func (a *app) writeMetrics() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn().Err(err).Str("path", a.cfg.Metrics.Textfile).Msg("Failed to write metrics")
	}
}

func (a *app) launchOptions() automation.LaunchOptions {
	return automation.LaunchOptions{
		Headless: a.cfg.Browser.Headless,
		SlowMo:   a.cfg.SlowMo(),
	}
}

func (a *app) engine(context.Context) (automation.Engine, error) {
	return newEngine(a.cfg, a.logger), nil
}

func (a *app) loginFlow() (*login.Flow, error) {
	l := a.cfg.Portal.Login
	return login.NewFlow(login.Config{
		BaseURL:     a.cfg.Portal.BaseURL,
		LandingPath: a.cfg.Portal.CanaryPath,
		Labels: login.Labels{
			AccountLink: l.AccountLink,
			Username:    l.Username,
			Password:    l.Password,
			Next:        l.Next,
			RememberMe:  l.RememberMe,
			Save:        l.Save,
		},
		Launch:  a.launchOptions(),
		Timeout: a.cfg.WaitTimeout(),
		Store:   a.store,
		Logger:  a.logger,
	})
}

// authenticator wraps the login flow so every attempt is counted
func (a *app) authenticator() (session.Authenticator, error) {
	flow, err := a.loginFlow()
	if err != nil {
		return nil, err
	}
	return session.AuthenticatorFunc(func(ctx context.Context, engine automation.Engine) (automation.Browser, automation.BrowsingContext, error) {
		b, c, err := flow.Login(ctx, engine)
		a.metrics.ObserveLogin(err)
		return b, c, err
	}), nil
}

func (a *app) manager(engine automation.Engine) (*session.Manager, error) {
	auth, err := a.authenticator()
	if err != nil {
		return nil, err
	}
	return session.NewManager(session.ManagerConfig{
		Engine:        engine,
		Store:         a.store,
		Authenticator: auth,
		CanaryURL:     a.cfg.CanaryURL(),
		LoginMarker:   a.cfg.Portal.LoginMarker,
		Launch:        a.launchOptions(),
		OnProbe:       a.metrics.ObserveProbe,
		Logger:        a.logger,
	})
}

// withManager runs fn with a manager on a fresh engine and closes the
// engine afterwards
func (a *app) withManager(ctx context.Context, fn func(*session.Manager) error) (err error) {
	engine, _ := a.engine(ctx)
	defer func() {
		if cerr := engine.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mgr, err := a.manager(engine)
	if err != nil {
		return err
	}
	return fn(mgr)
}

// login signs in on a fresh engine and releases the browser, keeping only
// the stored record
func (a *app) login(ctx context.Context) (err error) {
	auth, err := a.authenticator()
	if err != nil {
		return err
	}

	engine, _ := a.engine(ctx)
	defer func() {
		if cerr := engine.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	browser, bctx, err := auth.Login(ctx, engine)
	if err != nil {
		return err
	}
	return errors.Join(bctx.Close(), browser.Close())
}

// run executes a scenario through the runner and prunes the journal
func (a *app) run(ctx context.Context, name string, factory scenario.Factory) error {
	j, err := a.openJournal()
	if err != nil {
		return err
	}

	r, err := runner.New(runner.Config{
		NewEngine: a.engine,
		NewProvider: func(engine automation.Engine) (runner.ContextProvider, error) {
			return a.manager(engine)
		},
		WaitTimeout:   a.cfg.WaitTimeout(),
		ScreenshotDir: a.cfg.Runs.ScreenshotDir,
		Observer:      a.metrics,
		Journal:       j,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}

	runErr := r.Run(ctx, name, factory)

	if days := a.cfg.Runs.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if n, err := j.Prune(context.WithoutCancel(ctx), cutoff); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to prune journal")
		} else if n > 0 {
			a.logger.Debug().Int64("removed", n).Msg("Pruned journal")
		}
	}

	return runErr
}
