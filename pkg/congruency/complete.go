package congruency

import (
	"context"
	"math/big"

	"github.com/Sumatoshi-tech/matches/pkg/clusterset"
	"github.com/Sumatoshi-tech/matches/pkg/combinatorics"
)

// CompleteCalculator computes the complete congruency index h2.
type CompleteCalculator struct{}

// Index implements Calculator.
func (CompleteCalculator) Index() Index {
	return Complete
}

// Compute implements Calculator.
//
// Np sums, per cluster, the number of non-empty subsets of the members that
// also occur in the other clusterset (each occurrence in the other clusterset
// matches once), and takes the larger of both directions. Ne sums the
// non-empty subsets of the elements shared by each pair of clusters once both
// clustersets are reduced to their common elements.
func (CompleteCalculator) Compute(ctx context.Context, a, b *clusterset.ClusterSet, opts Options) (Result, error) {
	err := checkInputs(a, b)
	if err != nil {
		return Result{}, err
	}

	tr := tracer{w: opts.Trace}

	res := Result{
		Index:      Complete,
		NpForward:  completeNp(a, b, tr),
		NpBackward: completeNp(b, a, tr),
	}
	res.Np = maxInt(res.NpForward, res.NpBackward)

	if opts.Mode == ModeNp {
		return finish(res, a, b, opts, tr), nil
	}

	ne, err := completeNe(ctx, a, b, tr)
	if err != nil {
		return Result{}, err
	}

	res.Ne = ne

	return finish(res, a, b, opts, tr), nil
}

// namePool is a consumable multiset of element names.
type namePool map[string]int

func newNamePool(cs *clusterset.ClusterSet) namePool {
	pool := make(namePool, cs.Len())

	for _, e := range cs.Elements {
		pool[e.Name]++
	}

	return pool
}

// take consumes one occurrence of name and reports whether one was available.
func (p namePool) take(name string) bool {
	if p[name] == 0 {
		return false
	}

	p[name]--

	return true
}

func completeNp(from, against *clusterset.ClusterSet, tr tracer) *big.Int {
	pool := newNamePool(against)
	total := new(big.Int)

	tr.printf("\n=========================================\nClustersets: %s X %s\n", from.Name, against.Name)

	for cluster := range from.Clusters() {
		var common uint64

		for _, e := range cluster {
			if pool.take(e.Name) {
				common++
			}
		}

		subsets := combinatorics.SubsetCount(common)
		total.Add(total, subsets)

		tr.cluster(cluster)
		tr.printf("C. Elements = %d\n          A = %s\n", common, subsets)
	}

	tr.printf("Np = %s\n", total)

	return total
}

// prune returns a copy of cs holding only the elements whose name can be
// matched against an occurrence in other. Each occurrence in other matches at
// most one element. Cluster order is preserved.
func prune(cs, other *clusterset.ClusterSet) *clusterset.ClusterSet {
	pool := newNamePool(other)
	kept := make([]clusterset.Element, 0, cs.Len())

	for _, e := range cs.Elements {
		if pool.take(e.Name) {
			kept = append(kept, e)
		}
	}

	return &clusterset.ClusterSet{Name: cs.Name, Elements: kept}
}

func completeNe(ctx context.Context, a, b *clusterset.ClusterSet, tr tracer) (*big.Int, error) {
	workA := a.Clone()
	workB := b.Clone()

	defer workA.Release()
	defer workB.Release()

	prunedA := prune(workA, workB)
	prunedB := prune(workB, prunedA)

	defer prunedA.Release()
	defer prunedB.Release()

	tr.printf("\n-------------- Ne ---------------\n")

	total := new(big.Int)

	for clusterA := range prunedA.Clusters() {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		total.Add(total, clusterCorrespondence(clusterA, prunedB, tr))
	}

	return total, nil
}

// clusterCorrespondence compares one cluster of the first pruned clusterset
// with every cluster of the second and sums the non-empty subsets of the
// validated common elements.
func clusterCorrespondence(clusterA []clusterset.Element, prunedB *clusterset.ClusterSet, tr tracer) *big.Int {
	consumed := make([]bool, len(clusterA))
	sum := new(big.Int)

	if tr.w != nil {
		tr.printf("C1 cluster:")

		for _, e := range clusterA {
			tr.printf(" %s", e.Name)
		}

		tr.printf("\n------\n")
	}

	for clusterB := range prunedB.Clusters() {
		var common uint64

		for _, eb := range clusterB {
			for q, ea := range clusterA {
				if !consumed[q] && ea.Name == eb.Name {
					consumed[q] = true
					common++

					break
				}
			}

			tr.printf("C2: %s | %d\n", eb.Name, eb.Cluster)
		}

		common = breakSingletonTie(common, len(clusterA), len(clusterB))

		tr.printf("Common: %d\n\n", common)

		sum.Add(sum, combinatorics.SubsetCount(common))
	}

	return sum
}

// breakSingletonTie discards a lone shared element unless it links two
// clusters of equal size at least one of which is a singleton. In practice the
// match survives only between two singleton clusters.
func breakSingletonTie(common uint64, sizeA, sizeB int) uint64 {
	if common != 1 {
		return common
	}

	if sizeA > 1 && sizeB > 1 {
		return 0
	}

	if sizeA != sizeB {
		return 0
	}

	return common
}
