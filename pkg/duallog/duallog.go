package duallog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	stderrLogger zerolog.Logger = zerolog.Nop()
	stderrWriter io.Writer      = os.Stderr
)

// Setup configures the dual logging system:
// - All logs go to STDOUT (complete log), and to logFile when it is set
// - Progress messages go only to STDERR
// - Success messages go to both
//
// The returned closer flushes and closes the log file.
func Setup(level zerolog.Level, logFile string) io.Closer {
	return SetupWriters(os.Stdout, os.Stderr, level, logFile)
}

// SetupWriters is Setup with explicit output streams
func SetupWriters(stdout, stderr io.Writer, level zerolog.Level, logFile string) io.Closer {
	var closer io.Closer = nopCloser{}
	out := stdout
	if logFile != "" {
		file := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    5,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(stdout, file)
		closer = file
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zlog.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)

	stderrWriter = stderr
	stderrLogger = zerolog.New(stderr).With().Timestamp().Logger()
	return closer
}

// Progress logs a progress message ONLY to STDERR
func Progress() *zerolog.Event {
	return stderrLogger.Info()
}

// ProgressLogger returns the STDERR logger for components that take an injected logger
func ProgressLogger() zerolog.Logger {
	return stderrLogger
}

// Success logs a success message to BOTH STDOUT and STDERR
func Success() *DualEvent {
	return &DualEvent{
		stdout: zlog.Info(),
		stderr: stderrLogger.Info(),
	}
}

// DualEvent represents an event that writes to both STDOUT and STDERR
type DualEvent struct {
	stdout *zerolog.Event
	stderr *zerolog.Event
}

// Str adds a string field to both events
func (d *DualEvent) Str(key, val string) *DualEvent {
	d.stdout.Str(key, val)
	d.stderr.Str(key, val)
	return d
}

// Int adds an int field to both events
func (d *DualEvent) Int(key string, val int) *DualEvent {
	d.stdout.Int(key, val)
	d.stderr.Int(key, val)
	return d
}

// Dur adds a duration field to both events
func (d *DualEvent) Dur(key string, val time.Duration) *DualEvent {
	d.stdout.Str(key, val.String())
	d.stderr.Str(key, val.String())
	return d
}

// Msg sends the message to both STDOUT and STDERR
func (d *DualEvent) Msg(msg string) {
	d.stdout.Msg(msg)
	d.stderr.Msg(msg)
}

// Msgf sends a formatted message to both STDOUT and STDERR
func (d *DualEvent) Msgf(format string, v ...interface{}) {
	d.stdout.Msgf(format, v...)
	d.stderr.Msgf(format, v...)
}

// GetStderrWriter returns a writer for STDERR (for non-structured output)
func GetStderrWriter() io.Writer {
	return stderrWriter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
