// Package runner executes scenarios against an authenticated portal session.
//
// A run acquires resources strictly in the order engine, browser, context,
// page and releases them in reverse on every exit path.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/harun/edupilot/pkg/scenario"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// DefaultWaitTimeout applies when Config.WaitTimeout is unset
const DefaultWaitTimeout = 30 * time.Second

// EngineFactory starts an automation engine for one run
type EngineFactory func(ctx context.Context) (automation.Engine, error)

// ContextProvider hands out an authenticated browser and context
type ContextProvider interface {
	NewContext(ctx context.Context) (automation.Browser, automation.BrowsingContext, error)
}

// ProviderFactory binds a ContextProvider to the run's engine
type ProviderFactory func(engine automation.Engine) (ContextProvider, error)

// Journal records run history
type Journal interface {
	Start(ctx context.Context, id, scenario string, at time.Time) error
	Finish(ctx context.Context, id string, runErr error, screenshot string, at time.Time) error
}

// RunObserver is told about every finished run
type RunObserver interface {
	ObserveRun(scenario string, elapsed time.Duration, err error)
}

// Config configures a Runner
type Config struct {
	NewEngine   EngineFactory
	NewProvider ProviderFactory

	// WaitTimeout bounds every readiness wait and is applied to both page
	// default timeouts
	WaitTimeout time.Duration
	// ScreenshotDir receives a full-page screenshot when a scenario fails.
	// Empty disables screenshots.
	ScreenshotDir string

	Observer readiness.Observer
	Journal  Journal
	Metrics  RunObserver
	Logger   zerolog.Logger
}

// Runner runs scenarios
type Runner struct {
	newEngine     EngineFactory
	newProvider   ProviderFactory
	waitTimeout   time.Duration
	screenshotDir string
	observer      readiness.Observer
	journal       Journal
	metrics       RunObserver
	logger        zerolog.Logger
	now           func() time.Time
}

// New creates a Runner
func New(cfg Config) (*Runner, error) {
	if cfg.NewEngine == nil {
		return nil, fmt.Errorf("engine factory is required")
	}
	if cfg.NewProvider == nil {
		return nil, fmt.Errorf("context provider factory is required")
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}

	return &Runner{
		newEngine:     cfg.NewEngine,
		newProvider:   cfg.NewProvider,
		waitTimeout:   cfg.WaitTimeout,
		screenshotDir: cfg.ScreenshotDir,
		observer:      cfg.Observer,
		journal:       cfg.Journal,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With().Str("component", "runner").Logger(),
		now:           time.Now,
	}, nil
}

// Run executes the scenario built by factory under name. The scenario error
// is returned unchanged; close errors are returned only when the scenario
// succeeded.
func (r *Runner) Run(ctx context.Context, name string, factory scenario.Factory) (err error) {
	id := uuid.NewString()
	started := r.now()
	logger := r.logger.With().Str("run", id).Str("scenario", name).Logger()

	if r.journal != nil {
		if jerr := r.journal.Start(ctx, id, name, started); jerr != nil {
			logger.Warn().Err(jerr).Msg("Failed to journal run start")
		}
	}
	logger.Info().Dur("waitTimeout", r.waitTimeout).Msg("Run started")

	var screenshot string
	defer func() {
		finished := r.now()
		elapsed := finished.Sub(started)
		if r.journal != nil {
			if jerr := r.journal.Finish(context.WithoutCancel(ctx), id, err, screenshot, finished); jerr != nil {
				logger.Warn().Err(jerr).Msg("Failed to journal run finish")
			}
		}
		if r.metrics != nil {
			r.metrics.ObserveRun(name, elapsed, err)
		}
		if err != nil {
			logger.Error().Err(err).Dur("elapsed", elapsed).Str("screenshot", screenshot).Msg("Run failed")
			return
		}
		logger.Info().Dur("elapsed", elapsed).Msg("Run finished")
	}()

	screenshot, err = r.execute(ctx, logger, factory)
	return err
}

func (r *Runner) execute(ctx context.Context, logger zerolog.Logger, factory scenario.Factory) (screenshot string, err error) {
	engine, err := r.newEngine(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start automation engine: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close automation engine")
			if err == nil {
				err = cerr
			}
		}
	}()

	provider, err := r.newProvider(engine)
	if err != nil {
		return "", err
	}

	browser, bctx, err := provider.NewContext(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := r.teardown(logger, browser, bctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	page, err := firstPage(bctx)
	if err != nil {
		return "", err
	}
	page.SetDefaultTimeout(r.waitTimeout)
	page.SetDefaultNavigationTimeout(r.waitTimeout)

	ui := readiness.WrapPage(page, r.waitTimeout, readiness.WithObserver(r.waitObserver(logger)))

	s, err := factory()
	if err != nil {
		return "", fmt.Errorf("failed to build scenario: %w", err)
	}

	if err := s.Run(ctx, ui); err != nil {
		return r.capture(logger, page), err
	}
	return "", nil
}

// firstPage reuses the context's first page and opens one only when none
// exists
func firstPage(bctx automation.BrowsingContext) (automation.Page, error) {
	pages, err := bctx.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) > 0 {
		return pages[0], nil
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return page, nil
}

// teardown closes the context, then the browser
func (r *Runner) teardown(logger zerolog.Logger, browser automation.Browser, bctx automation.BrowsingContext) error {
	var errs []error
	if err := bctx.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close browsing context")
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := browser.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close browser")
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Runner) waitObserver(logger zerolog.Logger) readiness.Observer {
	return readiness.ObserverFunc(func(op readiness.Operation, state automation.WaitState, elapsed time.Duration, err error) {
		logger.Debug().
			Str("operation", string(op)).
			Str("state", string(state)).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("Readiness wait")
		if r.observer != nil {
			r.observer.ObserveWait(op, state, elapsed, err)
		}
	})
}

// capture saves a screenshot of page and returns its path. Failures are
// only logged.
func (r *Runner) capture(logger zerolog.Logger, page automation.Page) string {
	if r.screenshotDir == "" {
		return ""
	}

	data, err := page.Screenshot(true)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to capture screenshot")
		return ""
	}

	if err := os.MkdirAll(r.screenshotDir, 0755); err != nil {
		logger.Warn().Err(err).Msg("Failed to create screenshot directory")
		return ""
	}

	suffix, err := gonanoid.New(8)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to name screenshot")
		return ""
	}

	path := filepath.Join(r.screenshotDir, fmt.Sprintf("failure-%s-%s.png", r.now().Format("20060102-150405"), suffix))
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn().Err(err).Msg("Failed to write screenshot")
		return ""
	}

	logger.Info().Str("path", path).Msg("Saved failure screenshot")
	return path
}
