package utils

import (
	"fmt"
)

// ConfigurationError reports bad or missing inputs detected before any attempt is made
type ConfigurationError struct {
	Field      string
	Message    string
	Underlying error
}

func (e *ConfigurationError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("configuration error for %s: %s: %v", e.Field, e.Message, e.Underlying)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Underlying
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		Field:      field,
		Message:    message,
		Underlying: err,
	}
}

// UnsupportedAlgorithmError is returned when a digest algorithm name is not registered
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported hash algorithm %q", e.Algorithm)
}

// MalformedTargetError is returned when a hash target is not a plausible hex digest
type MalformedTargetError struct {
	Value  string
	Reason string
}

func (e *MalformedTargetError) Error() string {
	return fmt.Sprintf("malformed hash target %q: %s", e.Value, e.Reason)
}

// UnsafeTargetError is returned when a web endpoint does not point at the local machine
type UnsafeTargetError struct {
	Endpoint string
	Host     string
}

func (e *UnsafeTargetError) Error() string {
	return fmt.Sprintf("refusing to test %s: host %q is not a loopback address", e.Endpoint, e.Host)
}

// NotFoundError is returned when an input file does not exist
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// IOError wraps read failures on input files
type IOError struct {
	Path       string
	Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error (%s): %v", e.Path, e.Underlying)
}

func (e *IOError) Unwrap() error {
	return e.Underlying
}

// NewIOError creates a new i/o error
func NewIOError(path string, err error) *IOError {
	return &IOError{
		Path:       path,
		Underlying: err,
	}
}

// NetworkError represents a transport-level fault during a single attempt.
// It never aborts a run.
type NetworkError struct {
	Target     string
	Underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Target, e.Underlying)
}

func (e *NetworkError) Unwrap() error {
	return e.Underlying
}

// NewNetworkError creates a new network error
func NewNetworkError(target string, err error) *NetworkError {
	return &NetworkError{
		Target:     target,
		Underlying: err,
	}
}
