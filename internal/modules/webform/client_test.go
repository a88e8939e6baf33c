package webform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/nimda/password-tester/internal/demotarget"
	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		success  string
		failure  string
		expected interfaces.Outcome
	}{
		{"success marker present", "Welcome back", "Welcome", "Invalid", interfaces.OutcomeSuccess},
		{"failure marker present", "Invalid credentials", "Welcome", "Invalid", interfaces.OutcomeFailure},
		// Absence of the failure marker is treated as success.
		{"neither marker present", "Please wait", "Welcome", "Invalid", interfaces.OutcomeSuccess},
		{"both markers present", "Welcome! Invalid", "Welcome", "Invalid", interfaces.OutcomeSuccess},
		{"only success configured, absent", "Please wait", "Welcome", "", interfaces.OutcomeFailure},
		{"only failure configured, present", "Invalid", "", "Invalid", interfaces.OutcomeFailure},
		{"nothing configured", "Welcome", "", "", interfaces.OutcomeFailure},
		{"markers are case sensitive", "welcome back, invalid", "Welcome", "invalid", interfaces.OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.body, tt.success, tt.failure))
		})
	}
}

func TestIsLoopbackHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"localhost.", true},
		{"127.0.0.1", true},
		{"127.1.2.3", true},
		{"::1", true},
		{"example.com", false},
		{"10.0.0.1", false},
		{"0.0.0.0", false},
		{"localhost.example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLoopbackHost(tt.host))
		})
	}
}

func TestNew_RejectsNonLoopbackBeforeAnyRequest(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://example.com/login", httpmock.NewStringResponder(200, "Welcome"))

	v, err := New(Target{Endpoint: "http://example.com/login", Username: "admin", SuccessMarker: "Welcome"}, WithTransport(mt))

	assert.Nil(t, v)
	var unsafe *utils.UnsafeTargetError
	require.ErrorAs(t, err, &unsafe)
	assert.Equal(t, "example.com", unsafe.Host)
	assert.Equal(t, 0, mt.GetTotalCallCount())
}

func TestNew_RejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"ftp://localhost/login", "localhost:8000/login", "http:///login", "http://[::1"} {
		t.Run(raw, func(t *testing.T) {
			_, err := New(Target{Endpoint: raw})
			var cfgErr *utils.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func newDemo(t *testing.T) (*demotarget.Server, *httptest.Server) {
	t.Helper()
	srv := demotarget.New(demotarget.DefaultUsername, demotarget.DefaultPassword)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestVerifier_AgainstDemoTarget(t *testing.T) {
	srv, ts := newDemo(t)
	ctx := context.Background()

	v, err := New(Target{
		Endpoint:      ts.URL + "/login",
		Username:      "admin",
		SuccessMarker: demotarget.SuccessMessage,
		FailureMarker: demotarget.FailureMessage,
	})
	require.NoError(t, err)
	require.NoError(t, v.Connect(ctx))
	defer v.Close()

	for _, candidate := range []string{"123456", "letmein"} {
		outcome, err := v.Verify(ctx, candidate)
		require.NoError(t, err)
		assert.Equal(t, interfaces.OutcomeFailure, outcome, candidate)
	}

	outcome, err := v.Verify(ctx, "password")
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeSuccess, outcome)

	assert.Equal(t, 3, srv.Attempts())
	assert.Equal(t, 1, srv.Sessions(), "all attempts share one cookie session")
}

func TestVerifier_RequiresSession(t *testing.T) {
	_, ts := newDemo(t)
	ctx := context.Background()

	v, err := New(Target{Endpoint: ts.URL + "/login", Username: "admin", FailureMarker: "Invalid"})
	require.NoError(t, err)

	_, err = v.Verify(ctx, "password")
	require.Error(t, err)
	var netErr *utils.NetworkError
	assert.False(t, errors.As(err, &netErr), "a missing session is not a network error")

	require.NoError(t, v.Connect(ctx))
	assert.True(t, v.IsConnected())
	require.NoError(t, v.Close())
	assert.False(t, v.IsConnected())

	_, err = v.Verify(ctx, "password")
	assert.Error(t, err)
}

func TestVerifier_TransportFaultIsNetworkError(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://localhost:8000/login",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	v, err := New(Target{Endpoint: "http://localhost:8000/login", Username: "admin", FailureMarker: "Invalid"}, WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "password")
	assert.Equal(t, interfaces.OutcomeNetworkError, outcome)
	var netErr *utils.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestVerifier_SendsFormFields(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://127.0.0.1:8000/auth",
		func(req *http.Request) (*http.Response, error) {
			if err := req.ParseForm(); err != nil {
				return nil, err
			}
			if req.PostForm.Get("user") == "root" && req.PostForm.Get("pw") == "toor" {
				return httpmock.NewStringResponse(200, "Welcome root"), nil
			}
			return httpmock.NewStringResponse(200, "Invalid login"), nil
		})

	v, err := New(Target{
		Endpoint:      "http://127.0.0.1:8000/auth",
		UsernameField: "user",
		PasswordField: "pw",
		Username:      "root",
		SuccessMarker: "Welcome",
		FailureMarker: "Invalid",
	}, WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeFailure, outcome)

	outcome, err = v.Verify(context.Background(), "toor")
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeSuccess, outcome)
}

func redirectTo(status int, location string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, "")
		resp.Header.Set("Location", location)
		return resp, nil
	}
}

func TestVerifier_RefusesRedirectOffLoopback(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://localhost:8000/login",
		redirectTo(http.StatusTemporaryRedirect, "http://example.com/login"))
	mt.RegisterResponder(http.MethodPost, "http://example.com/login", httpmock.NewStringResponder(200, "Welcome"))

	v, err := New(Target{Endpoint: "http://localhost:8000/login", Username: "admin", SuccessMarker: "Welcome"}, WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "password")
	var unsafe *utils.UnsafeTargetError
	require.ErrorAs(t, err, &unsafe)
	assert.Equal(t, "example.com", unsafe.Host)
	var netErr *utils.NetworkError
	assert.False(t, errors.As(err, &netErr), "an off-host redirect must not be retried as a network fault")
	assert.NotEqual(t, interfaces.OutcomeSuccess, outcome)

	calls := mt.GetCallCountInfo()
	assert.Equal(t, 1, calls["POST http://localhost:8000/login"])
	assert.Equal(t, 0, calls["POST http://example.com/login"])
}

func TestVerifier_FollowsLoopbackRedirect(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://localhost:8000/login",
		redirectTo(http.StatusTemporaryRedirect, "http://127.0.0.1:8000/session"))
	mt.RegisterResponder(http.MethodPost, "http://127.0.0.1:8000/session", httpmock.NewStringResponder(200, "Welcome"))

	v, err := New(Target{Endpoint: "http://localhost:8000/login", Username: "admin", SuccessMarker: "Welcome"}, WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "password")
	require.NoError(t, err)
	assert.Equal(t, interfaces.OutcomeSuccess, outcome)
	assert.Equal(t, 2, mt.GetTotalCallCount())
}

func TestVerifier_StopsRedirectLoops(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://localhost:8000/login",
		redirectTo(http.StatusTemporaryRedirect, "http://localhost:8000/login"))

	v, err := New(Target{Endpoint: "http://localhost:8000/login", Username: "admin", SuccessMarker: "Welcome"}, WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "password")
	assert.Equal(t, interfaces.OutcomeNetworkError, outcome)
	assert.Error(t, err)
	assert.Equal(t, maxRedirects, mt.GetTotalCallCount())
}

func TestVerifier_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/login"
	ts.Close()

	v, err := New(Target{Endpoint: endpoint, Username: "admin", FailureMarker: "Invalid"})
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	outcome, err := v.Verify(context.Background(), "password")
	assert.Equal(t, interfaces.OutcomeNetworkError, outcome)
	var netErr *utils.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestVerifier_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	v, err := New(Target{Endpoint: ts.URL, Username: "admin", FailureMarker: "Invalid"}, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	start := time.Now()
	outcome, err := v.Verify(context.Background(), "password")
	assert.Equal(t, interfaces.OutcomeNetworkError, outcome)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestVerifier_MaxRate(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, "http://localhost/login", httpmock.NewStringResponder(200, "Invalid"))

	cfg := interfaces.NewRunConfig(interfaces.ModeWeb)
	cfg.MaxRate = 10
	v, err := New(Target{Endpoint: "http://localhost/login", Username: "admin", FailureMarker: "Invalid"},
		WithConfig(cfg), WithTransport(mt))
	require.NoError(t, err)
	require.NoError(t, v.Connect(context.Background()))
	defer v.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, 3, mt.GetTotalCallCount())
}

func TestDiscoverFields(t *testing.T) {
	_, ts := newDemo(t)

	fields, err := DiscoverFields(context.Background(), nil, ts.URL+"/login")
	require.NoError(t, err)
	assert.Equal(t, Fields{Username: "username", Password: "password"}, fields)
}

func TestDiscoverFields_RejectsNonLoopback(t *testing.T) {
	mt := httpmock.NewMockTransport()
	client := &http.Client{Transport: mt}

	_, err := DiscoverFields(context.Background(), client, "http://example.com/login")
	var unsafe *utils.UnsafeTargetError
	assert.ErrorAs(t, err, &unsafe)
	assert.Equal(t, 0, mt.GetTotalCallCount())
}

func TestDiscoverFields_RefusesRedirectOffLoopback(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, "http://localhost:8000/login",
		redirectTo(http.StatusFound, "http://example.com/login"))
	mt.RegisterResponder(http.MethodGet, "http://example.com/login",
		httpmock.NewStringResponder(200, `<form><input name="u"><input type="password" name="p"></form>`))
	client := &http.Client{Transport: mt}

	_, err := DiscoverFields(context.Background(), client, "http://localhost:8000/login")
	var unsafe *utils.UnsafeTargetError
	require.ErrorAs(t, err, &unsafe)
	assert.Equal(t, "example.com", unsafe.Host)
	assert.Equal(t, 0, mt.GetCallCountInfo()["GET http://example.com/login"])
	assert.Nil(t, client.CheckRedirect, "the caller's client is left untouched")
}

func TestParseFields(t *testing.T) {
	page := `<html><body>
<form action="/search"><input type="text" name="q"></form>
<form action="/login" method="post">
  <input type="hidden" name="csrf" value="x">
  <input name="login">
  <input type="password" name="secret">
</form></body></html>`

	fields, err := ParseFields(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, Fields{Username: "login", Password: "secret"}, fields)

	_, err = ParseFields(strings.NewReader(`<form><input type="text" name="q"></form>`))
	var cfgErr *utils.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "pass_field", cfgErr.Field)

	_, err = ParseFields(strings.NewReader(`<form><input type="password" name="pw"></form>`))
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "user_field", cfgErr.Field)
}
