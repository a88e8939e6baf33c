package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nimda/password-tester/internal/interfaces"
	"github.com/nimda/password-tester/pkg/duallog"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName           = "password-tester"
	envPrefix         = "PWTESTER"
	defaultLogFile    = "password_tester.log"
	consentAnnotation = "consent"
)

// app carries the state shared by every subcommand of one invocation
type app struct {
	v         *viper.Viper
	in        io.Reader
	out       io.Writer
	logCloser io.Closer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), in: in, out: out}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Educational password strength tester",
		Long: "Tests how quickly a password falls to a dictionary attack, either against a local hash " +
			"or against a login form served on this machine.",
		SilenceUsage:      true,
		PersistentPreRunE: a.preRun,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				if err := a.logCloser.Close(); err != nil {
					fmt.Fprintf(duallog.GetStderrWriter(), "failed to close log file: %v\n", err)
				}
			}
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	// Global flags (config, logging)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("trace", false, "Enable trace logging")
	rootCmd.PersistentFlags().String("log-file", defaultLogFile, "Rotating log file (empty to disable)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this host:port")
	rootCmd.PersistentFlags().Duration("report-interval", interfaces.DefaultReportInterval, "Progress report interval (0 to disable)")
	rootCmd.PersistentFlags().Bool("yes", false, "Confirm you have permission to test the target")

	rootCmd.AddCommand(a.localCmd(), a.webCmd(), a.digestCmd())
	return rootCmd
}

// preRun binds flags into viper, loads the config file and sets up logging
func (a *app) preRun(cmd *cobra.Command, args []string) error {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := a.v.BindPFlag(configKey(f.Name), f); err != nil {
			zlog.Warn().Err(err).Str("flag", f.Name).Msg("Failed to bind flag")
		}
	})
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.loadConfigFile(); err != nil {
		return err
	}

	logLevel := zerolog.InfoLevel
	if a.v.GetBool("trace") {
		logLevel = zerolog.TraceLevel
	} else if a.v.GetBool("debug") {
		logLevel = zerolog.DebugLevel
	}
	a.logCloser = duallog.Setup(logLevel, a.v.GetString("log_file"))

	if a.v.GetBool("trace") {
		zlog.Trace().Msg("TRACE MODE ENABLED")
	} else if a.v.GetBool("debug") {
		zlog.Debug().Msg("DEBUG MODE ENABLED")
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		zlog.Info().Str("config_file", used).Msg("Using config file")
	}

	if cmd.Annotations[consentAnnotation] == "" {
		return nil
	}
	printBanner(a.out)
	if a.v.GetBool("yes") {
		zlog.Debug().Msg("Consent given on the command line")
		return nil
	}
	return confirmConsent(a.in, a.out)
}

func (a *app) loadConfigFile() error {
	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
		return nil
	}

	a.v.AddConfigPath(".")
	a.v.SetConfigName(appName)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// resolveConfig merges flags, environment and config file into a validated RunConfig
func (a *app) resolveConfig(mode string) (*interfaces.RunConfig, error) {
	cfg := interfaces.NewRunConfig(mode)
	if err := a.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.Mode = mode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, path := range []string{cfg.Wordlist, cfg.HashFile} {
		if path == "" {
			continue
		}
		if err := interfaces.ValidateFile(path); err != nil {
			return nil, err
		}
	}
	zlog.Debug().Interface("config", cfg).Msg("Resolved configuration")
	return cfg, nil
}

func configKey(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

func printBanner(out io.Writer) {
	color.New(color.FgCyan, color.Bold).Fprintln(out, center("Educational Password Testing Tool", 60, "="))
}

func center(title string, width int, fill string) string {
	pad := width - len(title)
	if pad <= 0 {
		return title
	}
	left := pad / 2
	return strings.Repeat(fill, left) + title + strings.Repeat(fill, pad-left)
}
