// Package engine drives a congruency run: it discovers the clusterset files
// of a directory, compares every pair under each requested index and
// assembles the matrices and statistics of the report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
	"github.com/Sumatoshi-tech/matches/pkg/cmatrix"
	"github.com/Sumatoshi-tech/matches/pkg/congruency"
	"github.com/Sumatoshi-tech/matches/pkg/observability"
	"github.com/Sumatoshi-tech/matches/pkg/report"
)

// Sentinel errors.
var (
	// ErrNoClustersets indicates the input directory holds no clusterset files.
	ErrNoClustersets = errors.New("engine: no clusterset files found")
	// ErrConflictingLists indicates both an element list to read and one to create were given.
	ErrConflictingLists = errors.New("engine: element list cannot be both loaded and created")
)

// Span names.
const (
	spanRun  = "matches.run"
	spanPass = "matches.pass"
	spanPair = "matches.pair"
)

// diagonalValue is the congruency of a clusterset with itself.
const diagonalValue = 1.0

// Request describes one run.
type Request struct {
	// Dir holds the clusterset files. Every regular file is one clusterset.
	Dir string
	// Indices lists the passes to run, in order. Empty means the complete index only.
	Indices []congruency.Index
	// Mode selects the reported quantity.
	Mode congruency.Mode
	// ElementList is an existing element-name list to load.
	ElementList string
	// CreateList is a path the generated element-name list is written to.
	CreateList string
	// Workers bounds the pairs computed concurrently. Values below 1 mean 1.
	Workers int
	// Trace receives the per-cluster breakdown of every pair. Forces a single worker.
	Trace io.Writer
}

// Engine runs congruency passes.
type Engine struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.CongruencyMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for run, pass and pair spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithMetrics sets the metric instruments. Nil disables metrics.
func WithMetrics(metrics *observability.CongruencyMetrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// New creates an Engine. Without options it logs nothing and traces nothing.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer("matches"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes req and returns the report holding one section per index.
func (e *Engine) Run(ctx context.Context, req Request) (rep report.Report, err error) {
	ctx, span := e.tracer.Start(ctx, spanRun, trace.WithAttributes(
		attribute.String("matches.dir", req.Dir),
		attribute.String("matches.mode", req.Mode.String()),
	))

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if req.ElementList != "" && req.CreateList != "" {
		return report.Report{}, ErrConflictingLists
	}

	sets, err := e.loadDir(ctx, req.Dir)
	if err != nil {
		return report.Report{}, err
	}

	elements, err := e.elementList(ctx, req, sets)
	if err != nil {
		return report.Report{}, err
	}

	labels := make([]string, len(sets))
	for i, cs := range sets {
		labels[i] = cs.Name
	}

	matrix, err := cmatrix.New(labels)
	if err != nil {
		return report.Report{}, fmt.Errorf("create matrix: %w", err)
	}

	indices := req.Indices
	if len(indices) == 0 {
		indices = []congruency.Index{congruency.Complete}
	}

	rep = report.Report{Source: req.Dir, Elements: len(elements)}

	for _, idx := range indices {
		section, passErr := e.runPass(ctx, req, idx, sets, matrix)
		if passErr != nil {
			return report.Report{}, passErr
		}

		rep.Sections = append(rep.Sections, section)
	}

	span.SetAttributes(
		attribute.Int("matches.clustersets", len(sets)),
		attribute.Int("matches.elements", len(elements)),
	)

	return rep, nil
}

// runPass zeroes the matrix, fills every off-diagonal cell for idx and
// returns a snapshot with its statistics.
func (e *Engine) runPass(
	ctx context.Context, req Request, idx congruency.Index, sets []*clusterset.ClusterSet, matrix *cmatrix.Matrix,
) (report.Section, error) {
	ctx, span := e.tracer.Start(ctx, spanPass, trace.WithAttributes(attribute.String("matches.index", idx.String())))
	defer span.End()

	calc, err := congruency.ForIndex(idx)
	if err != nil {
		return report.Section{}, err
	}

	start := time.Now()

	matrix.Zero()

	err = e.fillMatrix(ctx, req, calc, sets, matrix)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return report.Section{}, fmt.Errorf("%s pass: %w", idx, err)
	}

	matrix.SetDiagonal(diagonalValue)

	stats := matrix.Statistics()

	span.SetAttributes(
		attribute.Int("matches.pairs", stats.Pairs),
		attribute.Float64("matches.mean", stats.Mean),
		attribute.Float64("matches.stddev", stats.StdDev),
	)
	e.metrics.RecordPass(ctx, idx.String())

	e.logger.InfoContext(ctx, "pass complete",
		slog.String("index", idx.String()),
		slog.String("pairs", humanize.Comma(int64(stats.Pairs))),
		slog.Float64("mean", stats.Mean),
		slog.Float64("stddev", stats.StdDev),
		slog.Duration("elapsed", time.Since(start)),
	)

	return report.Section{Index: idx, Mode: req.Mode, Matrix: matrix.Clone(), Stats: stats}, nil
}

// fillMatrix computes every pair (i, j), i < j, on a bounded worker pool.
// Each goroutine writes only its own cell.
func (e *Engine) fillMatrix(
	ctx context.Context, req Request, calc congruency.Calculator, sets []*clusterset.ClusterSet, matrix *cmatrix.Matrix,
) error {
	workers := max(req.Workers, 1)
	if req.Trace != nil {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	opts := congruency.Options{Mode: req.Mode, Logger: e.logger, Trace: req.Trace}

	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			g.Go(func() error {
				value, pairErr := e.computePair(gctx, calc, sets[i], sets[j], opts)
				if pairErr != nil {
					return fmt.Errorf("%s x %s: %w", sets[i].Name, sets[j].Name, pairErr)
				}

				return matrix.Set(i, j, value)
			})
		}
	}

	return g.Wait()
}

func (e *Engine) computePair(
	ctx context.Context, calc congruency.Calculator, a, b *clusterset.ClusterSet, opts congruency.Options,
) (float64, error) {
	if opts.Trace != nil {
		var span trace.Span

		ctx, span = e.tracer.Start(ctx, spanPair, trace.WithAttributes(
			attribute.String("matches.a", a.Name),
			attribute.String("matches.b", b.Name),
		))
		defer span.End()
	}

	start := time.Now()
	res, err := calc.Compute(ctx, a, b, opts)
	e.metrics.RecordPair(ctx, calc.Index().String(), time.Since(start), err)

	if err != nil {
		return 0, err
	}

	return res.Value, nil
}

// loadDir parses every clusterset file of dir, in file-name order.
func (e *Engine) loadDir(ctx context.Context, dir string) ([]*clusterset.ClusterSet, error) {
	names, err := clusterset.ListDir(dir)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoClustersets, dir)
	}

	sets := make([]*clusterset.ClusterSet, 0, len(names))

	var totalBytes uint64

	for _, name := range names {
		path := filepath.Join(dir, name)

		cs, readErr := clusterset.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}

		if info, statErr := os.Stat(path); statErr == nil {
			totalBytes += uint64(info.Size())
		}

		e.metrics.RecordClusterset(ctx, cs.Len())
		e.logger.DebugContext(ctx, "clusterset loaded",
			slog.String("file", name),
			slog.Int("clusters", cs.ClusterCount()),
			slog.String("elements", humanize.Comma(int64(cs.Len()))),
		)

		sets = append(sets, cs)
	}

	e.logger.InfoContext(ctx, "clustersets loaded",
		slog.String("dir", dir),
		slog.Int("files", len(sets)),
		slog.String("size", humanize.Bytes(totalBytes)),
	)

	return sets, nil
}

// elementList loads req.ElementList or derives the list from sets, writing
// it to req.CreateList when asked.
func (e *Engine) elementList(ctx context.Context, req Request, sets []*clusterset.ClusterSet) ([]string, error) {
	if req.ElementList != "" {
		names, err := clusterset.LoadElementList(req.ElementList)
		if err != nil {
			return nil, err
		}

		e.reportUnlisted(ctx, names, sets)

		return names, nil
	}

	names := clusterset.GenerateElementList(sets...)

	if req.CreateList != "" {
		err := writeElementListFile(req.CreateList, names)
		if err != nil {
			return nil, err
		}

		e.logger.InfoContext(ctx, "element list written",
			slog.String("path", req.CreateList),
			slog.String("elements", humanize.Comma(int64(len(names)))),
		)
	}

	return names, nil
}

// reportUnlisted logs, at debug level, clusterset elements missing from a loaded list.
func (e *Engine) reportUnlisted(ctx context.Context, names []string, sets []*clusterset.ClusterSet) {
	listed := make(map[string]struct{}, len(names))
	for _, name := range names {
		listed[name] = struct{}{}
	}

	for _, cs := range sets {
		missing := 0

		for _, el := range cs.Elements {
			if _, ok := listed[el.Name]; !ok {
				missing++
			}
		}

		if missing > 0 {
			e.logger.DebugContext(ctx, "elements absent from list",
				slog.String("file", cs.Name),
				slog.Int("missing", missing),
			)
		}
	}

	e.logger.InfoContext(ctx, "element list loaded",
		slog.String("elements", humanize.Comma(int64(len(names)))),
	)
}

func writeElementListFile(path string, names []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create element list: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close element list: %w", closeErr)
		}
	}()

	return clusterset.WriteElementList(f, names)
}
