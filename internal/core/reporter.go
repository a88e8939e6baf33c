package core

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// ProgressReporter periodically samples the attempt counter and emits progress events
type ProgressReporter struct {
	sample         func() int64
	total          int
	outputInterval time.Duration
	logger         zerolog.Logger
	startTime      time.Time
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	lastAttempts   int64
}

// NewProgressReporter creates a reporter reading the counter through sample.
// An interval of zero disables reporting.
func NewProgressReporter(sample func() int64, total int, outputInterval time.Duration, logger zerolog.Logger) *ProgressReporter {
	return &ProgressReporter{
		sample:         sample,
		total:          total,
		outputInterval: outputInterval,
		logger:         logger,
		startTime:      time.Now(),
		stopChan:       make(chan struct{}),
	}
}

// Start begins the progress output loop. It runs until Stop.
func (pr *ProgressReporter) Start() {
	if pr.outputInterval <= 0 {
		return
	}

	pr.startTime = time.Now()
	pr.wg.Add(1)
	go pr.outputLoop()
}

// Stop stops the output loop and waits for it to exit. Safe to call more than once.
func (pr *ProgressReporter) Stop() {
	pr.stopOnce.Do(func() {
		close(pr.stopChan)
	})
	pr.wg.Wait()
}

func (pr *ProgressReporter) outputLoop() {
	defer pr.wg.Done()

	ticker := time.NewTicker(pr.outputInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pr.outputProgress()

		case <-pr.stopChan:
			return
		}
	}
}

// outputProgress emits one event if the counter moved since the last sample
func (pr *ProgressReporter) outputProgress() {
	attempts := pr.sample()
	if attempts == pr.lastAttempts {
		return
	}
	pr.lastAttempts = attempts

	elapsed := time.Since(pr.startTime)
	var rate float64
	if elapsed > 0 {
		rate = float64(attempts) / elapsed.Seconds()
	}

	pr.logger.Info().
		Int64("attempts", attempts).
		Int("total", pr.total).
		Float64("rate", rate).
		Str("speed", humanize.CommafWithDigits(rate, 2)+" attempts/s").
		Dur("elapsed", elapsed).
		Msg("Progress")
}
