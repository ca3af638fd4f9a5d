// Package keepalive revalidates the stored portal session on a cron
// schedule and logs in again when it has expired.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harun/edupilot/pkg/session"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule probes every morning on school days
const DefaultSchedule = "0 6 * * 1-5"

// Prober reports the state of the stored session
type Prober interface {
	Status(ctx context.Context) (*session.Status, error)
}

// LoginFunc signs in, persists the record and releases the browser
type LoginFunc func(ctx context.Context) error

// Config configures a Scheduler
type Config struct {
	// Schedule is a standard 5-field cron expression or a descriptor such
	// as "@every 6h"
	Schedule string
	Prober   Prober
	Login    LoginFunc
	// Timeout bounds one check including a login
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Result is the outcome of one check
type Result struct {
	Present   bool
	Valid     bool
	Refreshed bool
}

// Scheduler runs session checks on a schedule
type Scheduler struct {
	prober  Prober
	login   LoginFunc
	timeout time.Duration
	logger  zerolog.Logger
	cron    *cron.Cron

	mu       sync.Mutex
	schedule string
	entry    cron.EntryID
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// New creates a scheduler. It does not start it.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Prober == nil {
		return nil, errors.New("session prober is required")
	}
	if cfg.Login == nil {
		return nil, errors.New("login function is required")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	logger := cfg.Logger.With().Str("component", "keepalive").Logger()
	s := &Scheduler{
		prober:  cfg.Prober,
		login:   cfg.Login,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}), cron.Recover(cronLogger{logger})),
		cron.WithLogger(cronLogger{logger}),
	)

	if err := s.Reschedule(cfg.Schedule); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Str("schedule", s.Schedule()).Time("next", s.Next()).Msg("Keep-alive started")
}

// Stop stops the scheduler and waits for a running check to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Keep-alive stopped")
}

// Schedule returns the active cron expression
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// Next returns the next planned check, zero when the scheduler is not
// running
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	id := s.entry
	s.mu.Unlock()
	return s.cron.Entry(id).Next
}

// Reschedule replaces the schedule. An invalid expression leaves the
// current one in place.
func (s *Scheduler) Reschedule(expr string) error {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expr == s.schedule && s.entry != 0 {
		return nil
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = s.cron.Schedule(sched, cron.FuncJob(s.runScheduled))
	s.schedule = expr

	s.logger.Info().Str("schedule", expr).Msg("Keep-alive schedule set")
	return nil
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Check(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Keep-alive check failed")
	}
}

// Check probes the session once and logs in when it is absent or expired
func (s *Scheduler) Check(ctx context.Context) (Result, error) {
	st, err := s.prober.Status(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to probe session: %w", err)
	}

	res := Result{Present: st.Present, Valid: st.Valid}
	if st.Valid {
		s.logger.Debug().Str("path", st.Path).Msg("Session still valid")
		return res, nil
	}

	s.logger.Info().Bool("present", st.Present).Msg("Session not valid, logging in")
	if err := s.login(ctx); err != nil {
		return res, fmt.Errorf("failed to refresh session: %w", err)
	}
	res.Refreshed = true
	s.logger.Info().Msg("Session refreshed")
	return res, nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
