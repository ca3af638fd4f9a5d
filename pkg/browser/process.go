package browser

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/harun/edupilot/pkg/automation"
	"github.com/rs/zerolog"
)

var _ automation.Engine = (*Engine)(nil)

// Engine launches Chrome processes through rod and tracks them until they
// are closed
type Engine struct {
	config    Config
	validator *SecurityValidator
	logger    zerolog.Logger

	mu       sync.Mutex
	browsers map[*Browser]struct{}
	closed   bool
}

// NewEngine creates a new engine
func NewEngine(config Config) *Engine {
	defaults := DefaultConfig()
	if config.ActionTimeout <= 0 {
		config.ActionTimeout = defaults.ActionTimeout
	}
	if config.NavigationTimeout <= 0 {
		config.NavigationTimeout = defaults.NavigationTimeout
	}

	logger := config.Logger.With().Str("component", "browser").Logger()
	return &Engine{
		config:    config,
		validator: NewSecurityValidator(config.Security, logger),
		logger:    logger,
		browsers:  make(map[*Browser]struct{}),
	}
}

// Launch spawns Chrome and connects to it over CDP
func (e *Engine) Launch(ctx context.Context, opts automation.LaunchOptions) (automation.Browser, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, &BrowserError{Code: ErrCodeConfiguration, Message: "Engine is closed"}
	}

	// Build Chrome launcher
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless)

	// Add no-sandbox flag if configured
	if e.config.NoSandbox {
		l = l.NoSandbox(true)
	}

	// Set custom Chrome path if specified
	if e.config.ChromePath != "" {
		l = l.Bin(e.config.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to launch Chrome")
	}

	rb := rod.New().ControlURL(controlURL).Context(ctx)
	if opts.SlowMo > 0 {
		rb = rb.SlowMotion(opts.SlowMo)
	}
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, newError(ErrCodeBrowserCrash, err, "Failed to connect to CDP")
	}

	b := &Browser{engine: e, rod: rb, launcher: l}

	e.mu.Lock()
	e.browsers[b] = struct{}{}
	e.mu.Unlock()

	e.logger.Debug().
		Bool("headless", opts.Headless).
		Dur("slowMo", opts.SlowMo).
		Str("controlURL", controlURL).
		Msg("Browser launched")

	return b, nil
}

// Close closes every browser still open
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	open := make([]*Browser, 0, len(e.browsers))
	for b := range e.browsers {
		open = append(open, b)
	}
	e.mu.Unlock()

	var firstErr error
	for _, b := range open {
		e.logger.Warn().Msg("Closing browser left open")
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) forget(b *Browser) {
	e.mu.Lock()
	delete(e.browsers, b)
	e.mu.Unlock()
}

// IsChromeInstalled checks if a local Chrome is available
func IsChromeInstalled() bool {
	_, found := launcher.LookPath()
	return found
}
