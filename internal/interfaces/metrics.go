package interfaces

import "time"

// Metrics defines the interface for collecting run metrics.
// Implementations can write to Prometheus, StatsD, or any other metrics backend.
type Metrics interface {
	// IncAttempts increments the number of verification attempts.
	IncAttempts(mode string)

	// IncNetworkErrors increments the number of attempts lost to transport faults.
	IncNetworkErrors(mode string)

	// ObserveLatency records the latency of a single verification.
	ObserveLatency(mode string, duration time.Duration)

	// ObserveRun records the terminal outcome and duration of a run.
	ObserveRun(mode, outcome string, duration time.Duration)
}

// NoopMetrics is a no-op implementation of Metrics.
// Use this when metrics collection is not needed.
type NoopMetrics struct{}

func (n *NoopMetrics) IncAttempts(mode string)                                 {}
func (n *NoopMetrics) IncNetworkErrors(mode string)                            {}
func (n *NoopMetrics) ObserveLatency(mode string, duration time.Duration)      {}
func (n *NoopMetrics) ObserveRun(mode, outcome string, duration time.Duration) {}
