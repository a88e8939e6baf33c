package webform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/internal/modules"
	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// maxBodySize caps how much of a login response is read for marker matching
	maxBodySize = 1 << 20
	// maxRedirects matches the net/http default
	maxRedirects = 10
)

// Target is the web-mode verification target
type Target struct {
	Endpoint      string
	UsernameField string
	PasswordField string
	SuccessMarker string
	FailureMarker string
	Username      string
}

// Verifier tests a loopback login form with one POST per candidate.
// All attempts of a run share one cookie-bearing session.
type Verifier struct {
	*modules.BaseVerifier
	target    Target
	endpoint  *url.URL
	timeout   time.Duration
	maxRate   float64
	transport http.RoundTripper

	mu      sync.Mutex
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a web form verifier.
// The endpoint must point at the local machine; this is checked here, once, before any request.
func New(target Target, opts ...Option) (*Verifier, error) {
	endpoint, err := CheckLoopback(target.Endpoint)
	if err != nil {
		return nil, err
	}

	if target.UsernameField == "" {
		target.UsernameField = "username"
	}
	if target.PasswordField == "" {
		target.PasswordField = "password"
	}

	v := &Verifier{
		BaseVerifier: modules.NewBaseVerifier(interfaces.ModeWeb, endpoint.String()),
		target:       target,
		endpoint:     endpoint,
		timeout:      interfaces.DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}

	zlog.Debug().
		Str("endpoint", v.endpoint.String()).
		Str("user_field", target.UsernameField).
		Str("pass_field", target.PasswordField).
		Dur("timeout", v.timeout).
		Msg("Web form verifier ready")

	return v, nil
}

// CheckLoopback parses rawURL and refuses anything whose host is not the local machine
func CheckLoopback(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, utils.NewConfigurationError("url", "cannot parse target URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, utils.NewConfigurationError("url", fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return nil, utils.NewConfigurationError("url", "target URL has no host", nil)
	}

	host := u.Hostname()
	if !IsLoopbackHost(host) {
		return nil, &utils.UnsafeTargetError{Endpoint: rawURL, Host: host}
	}
	return u, nil
}

// IsLoopbackHost reports whether host is "localhost" or a loopback IP literal.
// Other names are not resolved.
func IsLoopbackHost(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// checkRedirect keeps every hop of a request on the local machine
func checkRedirect(req *http.Request, via []*http.Request) error {
	if host := req.URL.Hostname(); !IsLoopbackHost(host) {
		zlog.Warn().Str("location", req.URL.String()).Msg("Refusing redirect off the local machine")
		return &utils.UnsafeTargetError{Endpoint: req.URL.String(), Host: host}
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

// Connect establishes the session shared by every attempt of the run
func (v *Verifier) Connect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.client != nil {
		zlog.Debug().Msg("Session already established, reusing it")
		return nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := v.transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	v.client = &http.Client{
		Jar:           jar,
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}

	if v.maxRate > 0 {
		v.limiter = rate.NewLimiter(rate.Limit(v.maxRate), 1)
	}

	v.SetConnected(true)
	zlog.Debug().Str("endpoint", v.GetTarget()).Msg("Web session established")
	return nil
}

// Close drops the session and its idle connections
func (v *Verifier) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.client == nil {
		return nil
	}
	v.client.CloseIdleConnections()
	v.client = nil
	v.limiter = nil
	v.SetConnected(false)
	zlog.Debug().Msg("Web session closed")
	return nil
}

func (v *Verifier) session() (*http.Client, *rate.Limiter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.client, v.limiter
}

// Verify submits the candidate with the fixed username and classifies the response body
func (v *Verifier) Verify(ctx context.Context, candidate string) (interfaces.Outcome, error) {
	client, limiter := v.session()
	if client == nil {
		return interfaces.OutcomeFailure, errors.New("web session not established")
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return interfaces.OutcomeNetworkError, utils.NewNetworkError(v.GetTarget(), err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	form := url.Values{}
	form.Set(v.target.UsernameField, v.target.Username)
	form.Set(v.target.PasswordField, candidate)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, v.endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return interfaces.OutcomeFailure, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	zlog.Trace().Str("username", v.target.Username).Str("endpoint", v.GetTarget()).Msg("Submitting login form")
	resp, err := client.Do(req)
	if err != nil {
		var unsafe *utils.UnsafeTargetError
		if errors.As(err, &unsafe) {
			return interfaces.OutcomeFailure, unsafe
		}
		zlog.Trace().Err(err).Msg("Login request failed")
		return interfaces.OutcomeNetworkError, utils.NewNetworkError(v.GetTarget(), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zlog.Trace().Err(err).Msg("Error closing login response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return interfaces.OutcomeNetworkError, utils.NewNetworkError(v.GetTarget(), err)
	}

	outcome := v.Classify(string(body))
	zlog.Trace().
		Int("status_code", resp.StatusCode).
		Int("body_bytes", len(body)).
		Stringer("outcome", outcome).
		Msg("Received login response")
	return outcome, nil
}

// Classify applies the configured markers to a response body
func (v *Verifier) Classify(body string) interfaces.Outcome {
	return Classify(body, v.target.SuccessMarker, v.target.FailureMarker)
}

// Classify decides whether a login response body indicates success.
// A configured success marker that is present wins. Otherwise a configured failure
// marker that is absent also counts as success: this heuristic can report false
// positives on pages that simply omit the failure text (e.g. lockout or error pages).
func Classify(body, successMarker, failureMarker string) interfaces.Outcome {
	if successMarker != "" && strings.Contains(body, successMarker) {
		return interfaces.OutcomeSuccess
	}
	if failureMarker != "" && !strings.Contains(body, failureMarker) {
		return interfaces.OutcomeSuccess
	}
	return interfaces.OutcomeFailure
}

// Ensure Verifier implements the Verifier interface
var _ interfaces.Verifier = (*Verifier)(nil)
