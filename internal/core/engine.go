package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/pkg/utils"
	"github.com/rs/zerolog"
)

// State is the lifecycle position of an Engine
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFound
	StateExhausted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Engine tries wordlist candidates against a verifier one at a time, in order.
// An Engine runs once.
type Engine struct {
	verifier       interfaces.Verifier
	wordlist       *Wordlist
	delay          time.Duration
	reportInterval time.Duration
	logger         zerolog.Logger
	progressLogger zerolog.Logger
	metrics        interfaces.Metrics
	runID          string

	state         atomic.Int32
	attempts      atomic.Int64
	networkErrors int
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithDelay sets the pause between consecutive attempts
func WithDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		e.delay = delay
	}
}

// WithReportInterval sets how often progress is sampled; zero disables progress events
func WithReportInterval(interval time.Duration) EngineOption {
	return func(e *Engine) {
		e.reportInterval = interval
	}
}

// WithLogger sets the logger for run lifecycle events
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProgressLogger sets the logger progress events are written to
func WithProgressLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.progressLogger = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics interfaces.Metrics) EngineOption {
	return func(e *Engine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// WithRunID overrides the generated run identifier
func WithRunID(id string) EngineOption {
	return func(e *Engine) {
		e.runID = id
	}
}

// NewEngine creates an engine for one run of wordlist against verifier
func NewEngine(verifier interfaces.Verifier, wordlist *Wordlist, opts ...EngineOption) *Engine {
	e := &Engine{
		verifier:       verifier,
		wordlist:       wordlist,
		delay:          interfaces.DefaultDelay,
		reportInterval: interfaces.DefaultReportInterval,
		logger:         zerolog.Nop(),
		progressLogger: zerolog.Nop(),
		metrics:        &interfaces.NoopMetrics{},
		runID:          uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Attempts returns the number of completed verifications so far
func (e *Engine) Attempts() int64 {
	return e.attempts.Load()
}

// RunID returns the identifier attached to this run's logs and summary
func (e *Engine) RunID() string {
	return e.runID
}

// Run tries candidates in order until one matches, the wordlist is exhausted,
// ctx is cancelled or the verifier fails fatally.
//
// Configuration problems (no verifier, empty wordlist, failed Connect) return a
// *utils.ConfigurationError and no summary. Every other path returns a summary;
// a fatal verifier fault returns an aborted summary along with the error.
// Cancellation is not an error.
func (e *Engine) Run(ctx context.Context) (summary Summary, err error) {
	if e.verifier == nil {
		return Summary{}, utils.NewConfigurationError("verifier", "no verifier configured", nil)
	}
	if e.wordlist.Len() == 0 {
		return Summary{}, utils.NewConfigurationError("wordlist", "wordlist contains no candidates", nil)
	}
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Summary{}, fmt.Errorf("engine already used (state %s)", e.State())
	}

	mode := e.verifier.GetMode()
	logger := e.logger.With().Str("run_id", e.runID).Str("mode", mode).Logger()

	if err := e.verifier.Connect(ctx); err != nil {
		e.state.Store(int32(StateAborted))
		logger.Error().Err(err).Str("target", e.verifier.GetTarget()).Msg("Failed to connect verifier")
		return Summary{}, utils.NewConfigurationError("target", "failed to prepare verifier", err)
	}

	total := e.wordlist.Len()
	started := time.Now()
	e.attempts.Store(0)

	reporter := NewProgressReporter(e.Attempts, total, e.reportInterval,
		e.progressLogger.With().Str("run_id", e.runID).Logger())
	reporter.Start()

	logger.Info().
		Str("target", e.verifier.GetTarget()).
		Int("candidates", total).
		Dur("delay", e.delay).
		Msg("Run started")

	outcome := OutcomeNotFound
	var password string

	defer func() {
		ended := time.Now()
		reporter.Stop()
		if cerr := e.verifier.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Error closing verifier")
		}

		summary = newSummary(outcome, password, int(e.attempts.Load()), started, ended)
		summary.RunID = e.runID
		summary.Mode = mode
		summary.Target = e.verifier.GetTarget()
		summary.Total = total
		summary.NetworkErrors = e.networkErrors

		e.metrics.ObserveRun(mode, string(outcome), summary.Elapsed)
		logger.Info().
			Str("outcome", string(outcome)).
			Int("attempts", summary.Attempts).
			Int("network_errors", summary.NetworkErrors).
			Dur("elapsed", summary.Elapsed).
			Msg("Run finished")
	}()

	// verifications in flight are never preempted; cancellation is observed between attempts
	verifyCtx := context.WithoutCancel(ctx)

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			outcome = OutcomeAborted
			e.state.Store(int32(StateAborted))
			logger.Warn().Int64("attempts", e.Attempts()).Msg("Run cancelled")
			return
		}

		candidate := e.wordlist.At(i)
		attemptStart := time.Now()
		result, verr := e.verifier.Verify(verifyCtx, candidate)
		e.attempts.Add(1)
		e.metrics.IncAttempts(mode)
		e.metrics.ObserveLatency(mode, time.Since(attemptStart))

		switch {
		case isNetworkFault(result, verr):
			e.networkErrors++
			e.metrics.IncNetworkErrors(mode)
			logger.Warn().Err(verr).Int("position", i+1).Msg("Network error, continuing with next candidate")

		case verr != nil:
			outcome = OutcomeAborted
			e.state.Store(int32(StateAborted))
			err = fmt.Errorf("verify candidate %d: %w", i+1, verr)
			logger.Error().Err(verr).Int("position", i+1).Msg("Verifier failed")
			return

		case result == interfaces.OutcomeSuccess:
			outcome = OutcomeFound
			password = candidate
			e.state.Store(int32(StateFound))
			logger.Info().Int("position", i+1).Msg("Password found")
			return

		default:
			logger.Trace().Int("position", i+1).Msg("Candidate rejected")
		}

		if i < total-1 && !e.pause(ctx) {
			outcome = OutcomeAborted
			e.state.Store(int32(StateAborted))
			logger.Warn().Int64("attempts", e.Attempts()).Msg("Run cancelled")
			return
		}
	}

	e.state.Store(int32(StateExhausted))
	return
}

// pause sleeps for the configured delay; it returns false if ctx was cancelled first
func (e *Engine) pause(ctx context.Context) bool {
	if e.delay <= 0 {
		return true
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isNetworkFault(result interfaces.Outcome, err error) bool {
	if result == interfaces.OutcomeNetworkError {
		return true
	}
	var netErr *utils.NetworkError
	return errors.As(err, &netErr)
}
