package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/nimda/password-tester/internal/core"
	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/internal/metrics"
	"github.com/nimda/password-tester/internal/modules/digest"
	"github.com/nimda/password-tester/internal/modules/webform"
	"github.com/nimda/password-tester/pkg/duallog"
	"github.com/nimda/password-tester/pkg/utils"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) localCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "local",
		Short:       "Test a wordlist against a password hash",
		Example:     "  password-tester local --wordlist words.txt --hash sha1:5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8",
		Annotations: map[string]string{consentAnnotation: "required"},
		Args:        cobra.NoArgs,
		RunE:        a.runLocal,
	}
	cmd.Flags().String("wordlist", "", "Path to password wordlist file")
	cmd.Flags().String("encoding", "utf-8", "Wordlist character encoding")
	cmd.Flags().String("hash-file", "", "File whose first line is the target hash ([algorithm:]hex)")
	cmd.Flags().String("hash", "", "Target hash ([algorithm:]hex); anything else is hashed with sha256 first")
	cmd.Flags().Duration("delay", interfaces.DefaultDelay, "Delay between attempts")
	return cmd
}

func (a *app) webCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "web",
		Short:       "Test a wordlist against a login form on this machine",
		Example:     "  password-tester web --wordlist words.txt --url http://localhost:8000/login --username admin --failure-text Invalid",
		Annotations: map[string]string{consentAnnotation: "required"},
		Args:        cobra.NoArgs,
		RunE:        a.runWeb,
	}
	cmd.Flags().String("wordlist", "", "Path to password wordlist file")
	cmd.Flags().String("encoding", "utf-8", "Wordlist character encoding")
	cmd.Flags().String("url", "", "Login URL (localhost or loopback address only)")
	cmd.Flags().String("username", "", "Username to submit")
	cmd.Flags().String("user-field", "", "Form field for the username (discovered when omitted)")
	cmd.Flags().String("pass-field", "", "Form field for the password (discovered when omitted)")
	cmd.Flags().String("success-text", "", "Text present on a successful login")
	cmd.Flags().String("failure-text", "", "Text present on a failed login")
	cmd.Flags().Duration("delay", interfaces.DefaultDelay, "Delay between attempts")
	cmd.Flags().Duration("timeout", interfaces.DefaultRequestTimeout, "Per-request timeout")
	cmd.Flags().Float64("max-rate", 0, "Maximum requests per second (0 for no limit)")
	return cmd
}

func (a *app) runLocal(cmd *cobra.Command, args []string) error {
	cfg, err := a.resolveConfig(interfaces.ModeLocal)
	if err != nil {
		return err
	}

	wordlist, err := core.LoadWordlist(cfg.Wordlist, core.WithEncoding(cfg.Encoding))
	if err != nil {
		return err
	}

	var target digest.Target
	if cfg.HashFile != "" {
		target, err = digest.LoadTarget(cfg.HashFile)
	} else {
		target, err = a.resolveHashValue(cfg.Hash)
	}
	if err != nil {
		return err
	}

	verifier, err := digest.NewVerifier(target)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n[+] Loaded %d passwords from wordlist.\n", wordlist.Len())
	fmt.Fprintf(a.out, "[+] Using hash algorithm: %s\n", verifier.Algorithm())
	return a.execute(cmd.Context(), cfg, verifier, wordlist)
}

// resolveHashValue accepts a target hash or, failing that, a plain password to hash with sha256
func (a *app) resolveHashValue(value string) (digest.Target, error) {
	target, err := digest.ParseTarget(value)
	if err == nil {
		return target, nil
	}

	var malformed *utils.MalformedTargetError
	if strings.Contains(value, ":") || !errors.As(err, &malformed) || strings.TrimSpace(value) == "" {
		return digest.Target{}, err
	}

	sum, err := digest.Sum(digest.DefaultAlgorithm, value)
	if err != nil {
		return digest.Target{}, err
	}
	fmt.Fprintf(a.out, "[!] Input does not look like a hash. Treating as plain text password and hashing with %s.\n", digest.DefaultAlgorithm)
	fmt.Fprintf(a.out, "[i] %s hash of your password is: %s\n", digest.DefaultAlgorithm, sum)
	return digest.Target{Algorithm: digest.DefaultAlgorithm, Digest: sum}, nil
}

func (a *app) runWeb(cmd *cobra.Command, args []string) error {
	cfg, err := a.resolveConfig(interfaces.ModeWeb)
	if err != nil {
		return err
	}

	wordlist, err := core.LoadWordlist(cfg.Wordlist, core.WithEncoding(cfg.Encoding))
	if err != nil {
		return err
	}

	if _, err := webform.CheckLoopback(cfg.URL); err != nil {
		return err
	}

	if cfg.UserField == "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		fields, err := webform.DiscoverFields(ctx, nil, cfg.URL)
		cancel()
		if err != nil {
			return fmt.Errorf("discover form fields: %w", err)
		}
		cfg.UserField, cfg.PassField = fields.Username, fields.Password
		zlog.Info().Str("user_field", fields.Username).Str("pass_field", fields.Password).Msg("Discovered form fields")
	}

	verifier, err := webform.New(webform.TargetFromConfig(cfg), webform.WithConfig(cfg))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n[+] Loaded %d passwords from wordlist.\n", wordlist.Len())
	fmt.Fprintf(a.out, "[+] Target URL: %s\n", cfg.URL)
	return a.execute(cmd.Context(), cfg, verifier, wordlist)
}

// execute runs the engine until it finishes or the process is interrupted, then prints the summary
func (a *app) execute(parent context.Context, cfg *interfaces.RunConfig, verifier interfaces.Verifier, wordlist *core.Wordlist) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink interfaces.Metrics = &interfaces.NoopMetrics{}
	if cfg.MetricsListen != "" {
		prom := metrics.NewPrometheus()
		shutdown := serveMetrics(cfg.MetricsListen, prom)
		defer shutdown()
		sink = prom
	}

	engine := core.NewEngine(verifier, wordlist,
		core.WithDelay(cfg.Delay),
		core.WithReportInterval(cfg.ReportEvery),
		core.WithLogger(zlog.Logger),
		core.WithProgressLogger(duallog.ProgressLogger()),
		core.WithMetrics(sink),
	)

	summary, err := engine.Run(ctx)
	if summary.Outcome == "" {
		return err
	}

	summary.Render(a.out)
	if summary.Found() {
		duallog.Success().
			Str("run_id", summary.RunID).
			Str("target", summary.Target).
			Int("attempts", summary.Attempts).
			Dur("elapsed", summary.Elapsed).
			Msg("Password found")
	}
	return err
}

// serveMetrics exposes /metrics until the returned shutdown func is called
func serveMetrics(addr string, prom *metrics.Prometheus) func() {
	router := mux.NewRouter()
	router.Handle("/metrics", prom.Handler()).Methods(http.MethodGet)

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
	zlog.Info().Str("addr", addr).Msg("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Warn().Err(err).Msg("Error shutting down metrics server")
		}
	}
}
