package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimda/password-tester/internal/demotarget"
	"github.com/nimda/password-tester/internal/modules/webform"
	"github.com/nimda/password-tester/pkg/duallog"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "demo-target",
	Short: "Serve a local login form for trying out web mode",
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("listen", "127.0.0.1:8000", "Address to listen on (loopback only)")
	rootCmd.Flags().String("username", demotarget.DefaultUsername, "Accepted username")
	rootCmd.Flags().String("password", demotarget.DefaultPassword, "Accepted password")
	rootCmd.Flags().Bool("debug", false, "Log every login attempt")
}

func run(cmd *cobra.Command, args []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	debug, _ := cmd.Flags().GetBool("debug")

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	duallog.Setup(level, "")

	if _, err := webform.CheckLoopback("http://" + listen + "/login"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              listen,
		Handler:           demotarget.New(username, password).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Warn().Err(err).Msg("Error shutting down demo target")
		}
	}()

	zlog.Info().Str("url", "http://"+listen+"/login").Msg("Demo target listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	zlog.Info().Msg("Demo target stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
