package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/matches/pkg/config"
	"github.com/Sumatoshi-tech/matches/pkg/congruency"
	"github.com/Sumatoshi-tech/matches/pkg/engine"
	"github.com/Sumatoshi-tech/matches/pkg/observability"
	"github.com/Sumatoshi-tech/matches/pkg/report"
)

var (
	// ErrNoInput is returned when no clusterset directory was given.
	ErrNoInput = errors.New("input directory should be provided (argument or -i)")
	// ErrConflictingListFlags is returned when -l and -L are combined.
	ErrConflictingListFlags = errors.New("both -l and -L cannot be used at the same time")
	// ErrConflictingModeFlags is returned when -P and -E are combined.
	ErrConflictingModeFlags = errors.New("both -P and -E cannot be used at the same time")
)

// runExecutor performs the run once the request is built.
type runExecutor func(ctx context.Context, eng *engine.Engine, req engine.Request) (report.Report, error)

// outputOpener opens the report sink named by -o.
type outputOpener func(path string) (io.WriteCloser, error)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	input       string
	list        string
	createList  string
	output      string
	format      string
	metricsFile string
	workers     int
	complete    bool
	pair        bool
	np          bool
	ne          bool
	noColor     bool

	exec       runExecutor
	openOutput outputOpener
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(executeRun, createOutputFile)
}

func newRunCommandWithDeps(exec runExecutor, openOutput outputOpener) *cobra.Command {
	rc := &RunCommand{
		exec:       exec,
		openOutput: openOutput,
	}

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Compute the congruency matrix of a directory of clustersets",
		Long: `Compare every pair of clusterset files in a directory and report the
congruency matrix with its mean and standard deviation.

Without -c or -p the complete congruency index is computed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.input, "input", "i", "", "Input directory")
	cmd.Flags().StringVarP(&rc.list, "list", "l", "", "Input element list file")
	cmd.Flags().StringVarP(&rc.createList, "createlist", "L", "", "Create element list file from clustersets")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Write results to output file")
	cmd.Flags().BoolVarP(&rc.complete, "complete", "c", false, "Calculate complete congruency")
	cmd.Flags().BoolVarP(&rc.pair, "pair", "p", false, "Calculate pair-to-pair congruency")
	cmd.Flags().BoolVarP(&rc.np, "np", "P", false, "Show congruency matrix with Np")
	cmd.Flags().BoolVarP(&rc.ne, "ne", "E", false, "Show congruency matrix with Ne")
	cmd.Flags().StringVar(&rc.format, "format", config.DefaultOutputFormat, "Output format: text, table, json, yaml, plot")
	cmd.Flags().IntVar(&rc.workers, "workers", config.DefaultWorkers, "Pairs computed concurrently")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored table output")
	cmd.Flags().StringVar(&rc.metricsFile, "metrics-file", "", "Write a Prometheus metrics snapshot to this file")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir(args, rc.input)
	if err != nil {
		return err
	}

	if rc.list != "" && rc.createList != "" {
		return ErrConflictingListFlags
	}

	if rc.np && rc.ne {
		return ErrConflictingModeFlags
	}

	sess, err := openSession(cmd, rc.metricsFile != "")
	if err != nil {
		return err
	}
	defer sess.close()

	req, format, err := rc.buildRequest(cmd, sess.cfg, dir)
	if err != nil {
		return err
	}

	if sess.opts.verbose {
		req.Trace = cmd.ErrOrStderr()
	}

	metrics, err := observability.NewCongruencyMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	eng := engine.New(
		engine.WithLogger(sess.providers.Logger),
		engine.WithTracer(sess.providers.Tracer),
		engine.WithMetrics(metrics),
	)

	progress := cmd.ErrOrStderr()
	sess.progressf(progress, "starting run dir=%s indices=%d workers=%d", dir, len(req.Indices), req.Workers)

	rep, err := rc.exec(cmd.Context(), eng, req)
	if err != nil {
		return err
	}

	writer, closeOutput := rc.resolveOutput(cmd, sess)
	defer closeOutput()

	noColor := rc.noColor || sess.cfg.Output.NoColor

	err = report.Render(writer, format, rep, report.Options{NoColor: noColor})
	if err != nil {
		return err
	}

	if rc.metricsFile != "" {
		err = writeMetricsFile(rc.metricsFile, sess.providers)
		if err != nil {
			return err
		}
	}

	sess.progressf(progress, "run completed")

	return nil
}

// buildRequest merges flags over configuration. Flags win only when set.
func (rc *RunCommand) buildRequest(cmd *cobra.Command, cfg *config.Config, dir string) (engine.Request, report.Format, error) {
	req := engine.Request{
		Dir:         dir,
		ElementList: rc.list,
		CreateList:  rc.createList,
		Workers:     cfg.Workers,
	}

	if cmd.Flags().Changed("workers") {
		req.Workers = rc.workers
	}

	req.Indices = rc.indices(cfg.Index)

	mode, err := rc.mode(cfg.Show)
	if err != nil {
		return engine.Request{}, "", err
	}

	req.Mode = mode

	formatName := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		formatName = rc.format
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return engine.Request{}, "", err
	}

	return req, format, nil
}

// indices returns the passes in report order: pair-to-pair first, then complete.
func (rc *RunCommand) indices(configured string) []congruency.Index {
	pair, complete := rc.pair, rc.complete

	if !pair && !complete {
		switch strings.ToLower(strings.TrimSpace(configured)) {
		case config.IndexPair:
			pair = true
		case config.IndexBoth:
			pair, complete = true, true
		default:
			complete = true
		}
	}

	var out []congruency.Index

	if pair {
		out = append(out, congruency.PairToPair)
	}

	if complete {
		out = append(out, congruency.Complete)
	}

	return out
}

func (rc *RunCommand) mode(configured string) (congruency.Mode, error) {
	switch {
	case rc.np:
		return congruency.ModeNp, nil
	case rc.ne:
		return congruency.ModeNe, nil
	default:
		return congruency.ParseMode(configured)
	}
}

// resolveOutput opens -o, falling back to standard output when the file
// cannot be created.
func (rc *RunCommand) resolveOutput(cmd *cobra.Command, sess *session) (io.Writer, func()) {
	stdout := cmd.OutOrStdout()

	if rc.output == "" {
		return stdout, func() {}
	}

	file, err := rc.openOutput(rc.output)
	if err != nil {
		sess.providers.Logger.Warn("could not open output file, using standard output",
			"path", rc.output, "error", err)

		return stdout, func() {}
	}

	return file, func() {
		closeErr := file.Close()
		if closeErr != nil {
			sess.providers.Logger.Warn("close output file failed", "path", rc.output, "error", closeErr)
		}
	}
}

func executeRun(ctx context.Context, eng *engine.Engine, req engine.Request) (report.Report, error) {
	return eng.Run(ctx, req)
}

func createOutputFile(path string) (io.WriteCloser, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}

	return file, nil
}

func writeMetricsFile(path string, providers observability.Providers) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close metrics file: %w", closeErr)
		}
	}()

	return observability.WriteMetrics(file, providers.Registry)
}
