// Package congruency computes agreement indices between two clustersets.
//
// Two indices are available: the pair-to-pair index (h), based on pairwise
// co-membership, and the complete congruency index (h2), which additionally
// requires whole-cluster correspondence. Both are defined as Ne / Np, where Np
// counts the combinatorial structures eligible for matching and Ne counts the
// ones confirmed in both clustersets. Counts are exact.
package congruency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
	"github.com/Sumatoshi-tech/matches/pkg/combinatorics"
)

// Sentinel errors.
var (
	// ErrUnknownIndex indicates an index name or value that is not supported.
	ErrUnknownIndex = errors.New("congruency: unknown index")
	// ErrUnknownMode indicates an output mode name that is not supported.
	ErrUnknownMode = errors.New("congruency: unknown mode")
	// ErrNilClusterSet indicates a nil clusterset was passed to a calculator.
	ErrNilClusterSet = errors.New("congruency: nil clusterset")
)

// Index selects the congruency index to compute.
type Index int

// Supported indices.
const (
	// PairToPair is the pair-to-pair index h.
	PairToPair Index = iota + 1
	// Complete is the complete congruency index h2.
	Complete
)

// Index names accepted by ParseIndex.
const (
	indexNamePair     = "pair"
	indexNameComplete = "complete"
)

// String returns the short index name.
func (i Index) String() string {
	switch i {
	case PairToPair:
		return indexNamePair
	case Complete:
		return indexNameComplete
	default:
		return fmt.Sprintf("index(%d)", int(i))
	}
}

// Title returns the banner printed above a report for this index.
func (i Index) Title() string {
	switch i {
	case PairToPair:
		return "============= pair-to-pair congruency (h) ============="
	case Complete:
		return "============== complete congruency index =============="
	default:
		return i.String()
	}
}

// ParseIndex converts a name ("pair", "p2p", "h", "complete", "h2") into an Index.
func ParseIndex(name string) (Index, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case indexNamePair, "p2p", "h":
		return PairToPair, nil
	case indexNameComplete, "h2":
		return Complete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}
}

// Mode selects which quantity a calculation reports.
type Mode int

// Output modes.
const (
	// ModeRatio reports the index value Ne / Np.
	ModeRatio Mode = iota
	// ModeNp reports the raw eligible-structure count Np.
	ModeNp
	// ModeNe reports the raw matched-structure count Ne.
	ModeNe
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRatio:
		return "ratio"
	case ModeNp:
		return "np"
	case ModeNe:
		return "ne"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts "ratio", "np" or "ne" into a Mode. An empty name is ModeRatio.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ratio":
		return ModeRatio, nil
	case "np":
		return ModeNp, nil
	case "ne":
		return ModeNe, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Options carries per-call settings. The zero value computes the ratio silently.
type Options struct {
	// Mode selects the reported quantity.
	Mode Mode
	// Logger receives a debug record per computed pair. Nil disables logging.
	Logger *slog.Logger
	// Trace receives the per-cluster breakdown when non-nil.
	Trace io.Writer
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return o.Logger
}

// Result holds the outcome of one pairwise calculation.
type Result struct {
	Index Index
	// Np is max(NpForward, NpBackward).
	Np         *big.Int
	NpForward  *big.Int
	NpBackward *big.Int
	// Ne is nil when the calculation stopped after Np (ModeNp).
	Ne *big.Int
	// Value is the quantity selected by Mode.
	Value float64
}

// Calculator computes one congruency index.
type Calculator interface {
	Index() Index
	Compute(ctx context.Context, a, b *clusterset.ClusterSet, opts Options) (Result, error)
}

// ForIndex returns the calculator implementing idx.
func ForIndex(idx Index) (Calculator, error) {
	switch idx {
	case PairToPair:
		return PairwiseCalculator{}, nil
	case Complete:
		return CompleteCalculator{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownIndex, int(idx))
	}
}

// Compute dispatches to the calculator for idx.
func Compute(ctx context.Context, idx Index, a, b *clusterset.ClusterSet, opts Options) (Result, error) {
	calc, err := ForIndex(idx)
	if err != nil {
		return Result{}, err
	}

	return calc.Compute(ctx, a, b, opts)
}

func checkInputs(a, b *clusterset.ClusterSet) error {
	if a == nil || b == nil {
		return ErrNilClusterSet
	}

	return nil
}

func maxInt(x, y *big.Int) *big.Int {
	if x.Cmp(y) > 0 {
		return new(big.Int).Set(x)
	}

	return new(big.Int).Set(y)
}

// finish fills Value according to the mode and emits the debug record.
func finish(res Result, a, b *clusterset.ClusterSet, opts Options, tr tracer) Result {
	switch opts.Mode {
	case ModeNp:
		res.Value = combinatorics.Float(res.Np)
	case ModeNe:
		res.Value = combinatorics.Float(res.Ne)
	default:
		res.Value = combinatorics.Ratio(res.Ne, res.Np)
	}

	if res.Ne != nil {
		tr.printf("Ne = %s\nmax{Np[1], Np[2]} = %s\n%s = %f\n\n", res.Ne, res.Np, scoreSymbol(res.Index), res.Value)
	}

	opts.logger().Debug("congruency computed",
		slog.String("index", res.Index.String()),
		slog.String("a", a.Name),
		slog.String("b", b.Name),
		slog.String("np", res.Np.String()),
		slog.String("mode", opts.Mode.String()),
		slog.Float64("value", res.Value),
	)

	return res
}

func scoreSymbol(idx Index) string {
	if idx == Complete {
		return "h2"
	}

	return "h"
}

// tracer writes the verbose per-cluster breakdown. A nil writer discards output.
type tracer struct {
	w io.Writer
}

func (t tracer) printf(format string, args ...any) {
	if t.w == nil {
		return
	}

	fmt.Fprintf(t.w, format, args...)
}

func (t tracer) cluster(cluster []clusterset.Element) {
	if t.w == nil {
		return
	}

	t.printf("Cluster found:\n")

	for _, e := range cluster {
		t.printf("    %10s | %d\n", e.Name, e.Cluster)
	}
}
