// Package metrics exports run metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "password_tester"

// Prometheus implements interfaces.Metrics on its own registry
type Prometheus struct {
	registry      *prometheus.Registry
	attempts      *prometheus.CounterVec
	networkErrors *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them on a fresh registry
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Number of candidate passwords verified.",
			},
			[]string{"mode"},
		),
		networkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "network_errors_total",
				Help:      "Number of attempts that failed at the transport level.",
			},
			[]string{"mode"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "verify_duration_seconds",
				Help:      "Latency of a single verification.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"mode"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Number of finished runs by outcome.",
			},
			[]string{"mode", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of finished runs.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}

	p.registry.MustRegister(p.attempts, p.networkErrors, p.latency, p.runs, p.runDuration)
	return p
}

func (p *Prometheus) IncAttempts(mode string) {
	p.attempts.WithLabelValues(mode).Inc()
}

func (p *Prometheus) IncNetworkErrors(mode string) {
	p.networkErrors.WithLabelValues(mode).Inc()
}

func (p *Prometheus) ObserveLatency(mode string, duration time.Duration) {
	p.latency.WithLabelValues(mode).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveRun(mode, outcome string, duration time.Duration) {
	p.runs.WithLabelValues(mode, outcome).Inc()
	p.runDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Registry returns the registry holding the collectors
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

var _ interfaces.Metrics = (*Prometheus)(nil)
