package webform

import (
	"net/http"
	"time"

	"github.com/nimda/password-tester/internal/interfaces"
)

// Option is a functional option for configuring a Verifier.
type Option func(*Verifier)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(v *Verifier) {
		if timeout > 0 {
			v.timeout = timeout
		}
	}
}

// WithMaxRate caps requests per second on top of the engine delay (0 disables the cap).
func WithMaxRate(perSecond float64) Option {
	return func(v *Verifier) {
		v.maxRate = perSecond
	}
}

// WithTransport replaces the HTTP transport used by the session.
func WithTransport(rt http.RoundTripper) Option {
	return func(v *Verifier) {
		v.transport = rt
	}
}

// WithConfig applies the web fields of a RunConfig to the verifier.
func WithConfig(cfg *interfaces.RunConfig) Option {
	return func(v *Verifier) {
		if cfg.Timeout > 0 {
			v.timeout = cfg.Timeout
		}
		v.maxRate = cfg.MaxRate
	}
}

// TargetFromConfig builds the web target described by a RunConfig.
func TargetFromConfig(cfg *interfaces.RunConfig) Target {
	return Target{
		Endpoint:      cfg.URL,
		UsernameField: cfg.UserField,
		PasswordField: cfg.PassField,
		SuccessMarker: cfg.SuccessText,
		FailureMarker: cfg.FailureText,
		Username:      cfg.Username,
	}
}
