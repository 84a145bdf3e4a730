package congruency

import (
	"context"
	"math/big"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
	"github.com/Sumatoshi-tech/matches/pkg/combinatorics"
)

// pairSize is the size of the structures counted by the pair-to-pair index.
const pairSize = 2

// PairwiseCalculator computes the pair-to-pair index h.
type PairwiseCalculator struct{}

// Index implements Calculator.
func (PairwiseCalculator) Index() Index {
	return PairToPair
}

// Compute implements Calculator.
//
// Np is the larger of the two directional counts of element pairs that share a
// cluster in one clusterset and whose members both occur in the other. Ne is the
// number of element pairs that share a cluster in both clustersets.
func (PairwiseCalculator) Compute(ctx context.Context, a, b *clusterset.ClusterSet, opts Options) (Result, error) {
	err := checkInputs(a, b)
	if err != nil {
		return Result{}, err
	}

	tr := tracer{w: opts.Trace}

	res := Result{
		Index:      PairToPair,
		NpForward:  pairwiseNp(a, b, tr),
		NpBackward: pairwiseNp(b, a, tr),
	}
	res.Np = maxInt(res.NpForward, res.NpBackward)

	if opts.Mode == ModeNp {
		return finish(res, a, b, opts, tr), nil
	}

	ne, err := pairwiseNe(ctx, a, b)
	if err != nil {
		return Result{}, err
	}

	res.Ne = ne

	return finish(res, a, b, opts, tr), nil
}

// pairwiseNp sums C(common, 2) over the clusters of from, where common counts
// the cluster members whose name occurs anywhere in against.
func pairwiseNp(from, against *clusterset.ClusterSet, tr tracer) *big.Int {
	names := against.NameSet()
	total := new(big.Int)

	tr.printf("\n=========================================\nClustersets: %s X %s\n", from.Name, against.Name)

	for cluster := range from.Clusters() {
		var common uint64

		for _, e := range cluster {
			if _, ok := names[e.Name]; ok {
				common++
			}
		}

		nk := combinatorics.Combination(common, pairSize)
		total.Add(total, nk)

		tr.cluster(cluster)
		tr.printf("C. Elements = %d\n         Nk = %s\n", common, nk)
	}

	tr.printf("T = %s\n", total)

	return total
}

// namePair is an unordered pair of element names, stored in ascending order.
type namePair struct {
	first, second string
}

func makeNamePair(x, y string) namePair {
	if y < x {
		x, y = y, x
	}

	return namePair{first: x, second: y}
}

// coClusteredPairs counts, for every unordered name pair, how many element
// pairs carrying those names share a cluster in cs.
func coClusteredPairs(ctx context.Context, cs *clusterset.ClusterSet) (map[namePair]int64, error) {
	pairs := make(map[namePair]int64)

	for cluster := range cs.Clusters() {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		for i := range cluster {
			for j := i + 1; j < len(cluster); j++ {
				pairs[makeNamePair(cluster[i].Name, cluster[j].Name)]++
			}
		}
	}

	return pairs, nil
}

// pairwiseNe counts the element pairs co-clustered in both a and b. Each
// co-clustered pair of b matches at most one pair of a, so repeated names
// contribute the smaller of the two occurrence counts.
func pairwiseNe(ctx context.Context, a, b *clusterset.ClusterSet) (*big.Int, error) {
	inA, err := coClusteredPairs(ctx, a)
	if err != nil {
		return nil, err
	}

	inB, err := coClusteredPairs(ctx, b)
	if err != nil {
		return nil, err
	}

	var matched int64

	for pair, count := range inA {
		matched += min(count, inB[pair])
	}

	return big.NewInt(matched), nil
}
