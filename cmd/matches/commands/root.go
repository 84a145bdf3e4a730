// Package commands implements CLI command handlers for matches.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/matches/pkg/config"
	"github.com/Sumatoshi-tech/matches/pkg/observability"
	"github.com/Sumatoshi-tech/matches/pkg/version"
)

// Global flag names shared by every command.
const (
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagConfig  = "config"
	flagLogJSON = "log-json"
)

// AddGlobalFlags registers the persistent flags every command reads.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output: debug logs and per-cluster trace")
	root.PersistentFlags().BoolP(flagQuiet, "q", false, "suppress progress output")
	root.PersistentFlags().String(flagConfig, "", "config file (default: .matches.yaml in CWD or $HOME)")
	root.PersistentFlags().Bool(flagLogJSON, false, "write logs as JSON")
}

// globalOptions are the persistent flags as seen by one command.
type globalOptions struct {
	verbose    bool
	quiet      bool
	logJSON    bool
	configPath string
}

func readGlobalOptions(cmd *cobra.Command) globalOptions {
	var opts globalOptions

	opts.verbose, _ = cmd.Flags().GetBool(flagVerbose)
	opts.quiet, _ = cmd.Flags().GetBool(flagQuiet)
	opts.logJSON, _ = cmd.Flags().GetBool(flagLogJSON)
	opts.configPath, _ = cmd.Flags().GetString(flagConfig)

	return opts
}

// session bundles what a command needs after start-up.
type session struct {
	cfg       *config.Config
	opts      globalOptions
	providers observability.Providers
}

// openSession loads configuration and initializes observability.
func openSession(cmd *cobra.Command, prometheus bool) (*session, error) {
	opts := readGlobalOptions(cmd)

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.LogJSON = cfg.Logging.JSON || opts.logJSON
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogWriter = cmd.ErrOrStderr()
	obsCfg.Prometheus = prometheus

	if opts.verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	if opts.quiet && !opts.verbose {
		obsCfg.LogLevel = slog.LevelError
		obsCfg.Mode = observability.ModeBatch
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, opts: opts, providers: providers}, nil
}

func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func (s *session) progressf(writer io.Writer, format string, args ...any) {
	if s.opts.quiet {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}

// resolveDir picks the positional directory argument over the --input flag.
func resolveDir(args []string, input string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if input == "" {
		return "", ErrNoInput
	}

	return input, nil
}
