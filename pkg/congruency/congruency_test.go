package congruency_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
	"github.com/Sumatoshi-tech/matches/pkg/congruency"
)

func mustParse(t *testing.T, name, content string) *clusterset.ClusterSet {
	t.Helper()

	cs, err := clusterset.ParseString(name, content)
	require.NoError(t, err)

	return cs
}

func compute(t *testing.T, idx congruency.Index, a, b *clusterset.ClusterSet, mode congruency.Mode) congruency.Result {
	t.Helper()

	res, err := congruency.Compute(context.Background(), idx, a, b, congruency.Options{Mode: mode})
	require.NoError(t, err)

	return res
}

func TestSelfCongruencyIsMaximal(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 2,")

	for _, idx := range []congruency.Index{congruency.PairToPair, congruency.Complete} {
		t.Run(idx.String(), func(t *testing.T) {
			t.Parallel()

			res := compute(t, idx, a, a, congruency.ModeRatio)
			assert.Zero(t, res.Ne.Cmp(res.Np), "Ne=%s Np=%s", res.Ne, res.Np)
			assert.InDelta(t, 1.0, res.Value, 1e-12)
		})
	}
}

func TestPairwise_Counts(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 1, d 2,")
	b := mustParse(t, "B", "a 1, b 1, c 2, d 2,")

	res := compute(t, congruency.PairToPair, a, b, congruency.ModeRatio)
	assert.Equal(t, "3", res.NpForward.String())
	assert.Equal(t, "2", res.NpBackward.String())
	assert.Equal(t, "3", res.Np.String())
	assert.Equal(t, "1", res.Ne.String())
	assert.InDelta(t, 1.0/3.0, res.Value, 1e-12)
}

func TestPairwise_IsSymmetric(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 1, d 2, e 2,")
	b := mustParse(t, "B", "a 1, c 1, b 2, d 2, e 2, f 3,")

	ab := compute(t, congruency.PairToPair, a, b, congruency.ModeRatio)
	ba := compute(t, congruency.PairToPair, b, a, congruency.ModeRatio)

	assert.InDelta(t, ab.Value, ba.Value, 1e-12)
	assert.Zero(t, ab.Ne.Cmp(ba.Ne))
}

func TestPairwise_OrderIndependentMatch(t *testing.T) {
	t.Parallel()

	// Pair members appear in opposite order inside the matching cluster.
	a := mustParse(t, "A", "x 1, y 1,")
	b := mustParse(t, "B", "y 4, x 4,")

	res := compute(t, congruency.PairToPair, a, b, congruency.ModeRatio)
	assert.Equal(t, "1", res.Ne.String())
	assert.InDelta(t, 1.0, res.Value, 1e-12)
}

func TestPairwise_DuplicateNamesStayBounded(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "x 1, y 1, x 2, y 2,")
	b := mustParse(t, "B", "x 1, y 1, x 1, y 1,")

	forward := compute(t, congruency.PairToPair, a, b, congruency.ModeRatio)
	assert.Equal(t, "6", forward.Np.String())
	assert.Equal(t, "2", forward.Ne.String())
	assert.InDelta(t, 1.0/3.0, forward.Value, 1e-12)
	assert.LessOrEqual(t, forward.Ne.Cmp(forward.Np), 0)

	backward := compute(t, congruency.PairToPair, b, a, congruency.ModeRatio)
	assert.Equal(t, forward.Ne.String(), backward.Ne.String())
	assert.InDelta(t, forward.Value, backward.Value, 1e-12)
}

func TestComplete_Counts(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 1, d 2,")
	b := mustParse(t, "B", "a 1, b 1, c 2, d 2,")

	res := compute(t, congruency.Complete, a, b, congruency.ModeRatio)
	assert.Equal(t, "8", res.NpForward.String())
	assert.Equal(t, "6", res.NpBackward.String())
	assert.Equal(t, "8", res.Np.String())
	assert.Equal(t, "3", res.Ne.String())
	assert.InDelta(t, 3.0/8.0, res.Value, 1e-12)
}

func TestComplete_PrunesUncommonElements(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, x 2,")
	b := mustParse(t, "B", "a 3, b 3, y 4,")

	res := compute(t, congruency.Complete, a, b, congruency.ModeRatio)
	assert.Equal(t, "3", res.Np.String())
	assert.Equal(t, "3", res.Ne.String())
	assert.InDelta(t, 1.0, res.Value, 1e-12)

	// The inputs are untouched by pruning.
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, b.Len())
}

func TestComplete_LoneMatchAgainstLargerClusterIsDiscarded(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 1,")
	b := mustParse(t, "B", "a 1, b 2, c 2,")

	res := compute(t, congruency.Complete, a, b, congruency.ModeRatio)
	// {a,b,c} vs {a}: lone match, sizes 3 and 1, contributes 0.
	// {a,b,c} vs {b,c}: two common elements, contributes 3.
	assert.Equal(t, "3", res.Ne.String())
	assert.Equal(t, "7", res.Np.String())
	assert.InDelta(t, 3.0/7.0, res.Value, 1e-12)
}

func TestComplete_SingletonMatchCounts(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 2,")
	b := mustParse(t, "B", "a 5, b 6,")

	complete := compute(t, congruency.Complete, a, b, congruency.ModeRatio)
	assert.Equal(t, "2", complete.Ne.String())
	assert.InDelta(t, 1.0, complete.Value, 1e-12)

	pair := compute(t, congruency.PairToPair, a, b, congruency.ModeRatio)
	assert.Zero(t, pair.Np.Sign())
	assert.InDelta(t, 0.0, pair.Value, 1e-12)
}

func TestComplete_DuplicateNamesMatchOnce(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, a 2,")
	b := mustParse(t, "B", "a 1,")

	res := compute(t, congruency.Complete, a, b, congruency.ModeRatio)
	assert.Equal(t, "1", res.NpForward.String())
	assert.Equal(t, "1", res.NpBackward.String())
	assert.Equal(t, "1", res.Ne.String())
}

func TestDisjointClustersetsScoreZero(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1,")
	b := mustParse(t, "B", "c 1, d 1,")

	for _, idx := range []congruency.Index{congruency.PairToPair, congruency.Complete} {
		res := compute(t, idx, a, b, congruency.ModeRatio)
		assert.Zero(t, res.Np.Sign(), idx.String())
		assert.InDelta(t, 0.0, res.Value, 1e-12, idx.String())
	}
}

func TestModes(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 1, d 2,")
	b := mustParse(t, "B", "a 1, b 1, c 2, d 2,")

	np := compute(t, congruency.Complete, a, b, congruency.ModeNp)
	assert.InDelta(t, 8.0, np.Value, 1e-12)
	assert.Nil(t, np.Ne)

	ne := compute(t, congruency.Complete, a, b, congruency.ModeNe)
	assert.InDelta(t, 3.0, ne.Value, 1e-12)

	pairNp := compute(t, congruency.PairToPair, a, b, congruency.ModeNp)
	assert.InDelta(t, 3.0, pairNp.Value, 1e-12)

	pairNe := compute(t, congruency.PairToPair, a, b, congruency.ModeNe)
	assert.InDelta(t, 1.0, pairNe.Value, 1e-12)
}

func TestCompute_Errors(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1,")

	_, err := congruency.Compute(context.Background(), congruency.Index(42), a, a, congruency.Options{})
	require.ErrorIs(t, err, congruency.ErrUnknownIndex)

	_, err = congruency.Compute(context.Background(), congruency.Complete, nil, a, congruency.Options{})
	require.ErrorIs(t, err, congruency.ErrNilClusterSet)
}

func TestCompute_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := mustParse(t, "A", "a 1, b 1,")

	for _, idx := range []congruency.Index{congruency.PairToPair, congruency.Complete} {
		_, err := congruency.Compute(ctx, idx, a, a, congruency.Options{})
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestTraceOutput(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "A", "a 1, b 1, c 2,")

	var buf bytes.Buffer

	_, err := congruency.Compute(context.Background(), congruency.Complete, a, a, congruency.Options{Trace: &buf})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Clustersets: A X A")
	assert.Contains(t, out, "C. Elements = 2")
	assert.Contains(t, out, "h2 = 1.000000")
}

func TestParseIndexAndMode(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]congruency.Index{
		"pair": congruency.PairToPair, "P2P": congruency.PairToPair, "h": congruency.PairToPair,
		"complete": congruency.Complete, "h2": congruency.Complete,
	} {
		got, err := congruency.ParseIndex(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := congruency.ParseIndex("other")
	require.ErrorIs(t, err, congruency.ErrUnknownIndex)

	for name, want := range map[string]congruency.Mode{
		"": congruency.ModeRatio, "ratio": congruency.ModeRatio, "NP": congruency.ModeNp, "ne": congruency.ModeNe,
	} {
		got, modeErr := congruency.ParseMode(name)
		require.NoError(t, modeErr, name)
		assert.Equal(t, want, got, name)
	}

	_, err = congruency.ParseMode("both")
	require.ErrorIs(t, err, congruency.ErrUnknownMode)
}

func TestIndexTitles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "============= pair-to-pair congruency (h) =============", congruency.PairToPair.Title())
	assert.Equal(t, "============== complete congruency index ==============", congruency.Complete.Title())
}

func buildClusterSet(clusters []uint64) *clusterset.ClusterSet {
	var sb strings.Builder

	for i, c := range clusters {
		fmt.Fprintf(&sb, "e%d %d,\n", i, c)
	}

	cs, err := clusterset.ParseString("gen", sb.String())
	if err != nil {
		panic(err)
	}

	return cs
}

func TestSelfCongruencyProperty(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)

	properties.Property("h(A,A) and h2(A,A) are 1 whenever Np is positive", prop.ForAll(
		func(clusters []uint64) bool {
			if len(clusters) == 0 {
				return true
			}

			cs := buildClusterSet(clusters)

			for _, idx := range []congruency.Index{congruency.PairToPair, congruency.Complete} {
				res, err := congruency.Compute(context.Background(), idx, cs, cs, congruency.Options{})
				if err != nil {
					return false
				}

				if res.Np.Sign() == 0 {
					continue
				}

				if res.Value != 1.0 {
					return false
				}
			}

			return true
		},
		gen.SliceOf(gen.UInt64Range(0, 4)),
	))

	properties.Property("scores stay within [0, 1]", prop.ForAll(
		func(left, right []uint64) bool {
			if len(left) == 0 || len(right) == 0 {
				return true
			}

			a := buildClusterSet(left)
			b := buildClusterSet(right)

			for _, idx := range []congruency.Index{congruency.PairToPair, congruency.Complete} {
				res, err := congruency.Compute(context.Background(), idx, a, b, congruency.Options{})
				if err != nil || res.Value < 0 || res.Value > 1 {
					return false
				}
			}

			return true
		},
		gen.SliceOf(gen.UInt64Range(0, 3)),
		gen.SliceOf(gen.UInt64Range(0, 3)),
	))

	properties.TestingRun(t)
}
