package metrics

import (
	"errors"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Readiness metrics
	ReadinessWaitsTotal   *prometheus.CounterVec
	ReadinessWaitDuration *prometheus.HistogramVec

	// Session metrics
	SessionProbesTotal *prometheus.CounterVec
	LoginsTotal        *prometheus.CounterVec
	LastRunTimestamp   *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupilot_runs_total",
				Help: "Total number of scenario runs",
			},
			[]string{"scenario", "status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edupilot_run_duration_seconds",
				Help:    "Duration of scenario runs in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"scenario"},
		),

		ReadinessWaitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupilot_readiness_waits_total",
				Help: "Total number of readiness waits before actions",
			},
			[]string{"operation", "state", "outcome"},
		),
		ReadinessWaitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edupilot_readiness_wait_duration_seconds",
				Help:    "Time spent waiting for elements to become ready",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "state"},
		),

		SessionProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupilot_session_probes_total",
				Help: "Total number of session validity probes",
			},
			[]string{"result"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edupilot_logins_total",
				Help: "Total number of interactive logins",
			},
			[]string{"status"},
		),
		LastRunTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edupilot_last_run_timestamp_seconds",
				Help: "Unix time of the last finished run",
			},
			[]string{"scenario"},
		),
	}

	m.registerMetrics()
	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ReadinessWaitsTotal,
		m.ReadinessWaitDuration,
		m.SessionProbesTotal,
		m.LoginsTotal,
		m.LastRunTimestamp,
	)
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(scenario string, elapsed time.Duration, err error) {
	m.RunsTotal.WithLabelValues(scenario, status(err)).Inc()
	m.RunDuration.WithLabelValues(scenario).Observe(elapsed.Seconds())
	m.LastRunTimestamp.WithLabelValues(scenario).SetToCurrentTime()
}

// ObserveWait implements readiness.Observer
func (m *Metrics) ObserveWait(op readiness.Operation, state automation.WaitState, elapsed time.Duration, err error) {
	outcome := "ready"
	switch {
	case errors.Is(err, automation.ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	m.ReadinessWaitsTotal.WithLabelValues(string(op), string(state), outcome).Inc()
	m.ReadinessWaitDuration.WithLabelValues(string(op), string(state)).Observe(elapsed.Seconds())
}

// ObserveProbe records a session probe result
func (m *Metrics) ObserveProbe(valid bool, err error) {
	result := "invalid"
	switch {
	case err != nil:
		result = "error"
	case valid:
		result = "valid"
	}
	m.SessionProbesTotal.WithLabelValues(result).Inc()
}

// ObserveLogin records an interactive login attempt
func (m *Metrics) ObserveLogin(err error) {
	m.LoginsTotal.WithLabelValues(status(err)).Inc()
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
