package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricClustersetsTotal = "matches.clustersets.parsed.total"
	metricElementsTotal    = "matches.clustersets.elements.total"
	metricPairsTotal       = "matches.pairs.total"
	metricPairDuration     = "matches.pair.duration.seconds"
	metricPassesTotal      = "matches.passes.total"
	metricErrorsTotal      = "matches.errors.total"

	attrIndex  = "index"
	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 100us to 60s: small clustersets compare in
// microseconds, large complete-index pairs take seconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}

// CongruencyMetrics holds the OTel instruments recorded by a congruency run.
type CongruencyMetrics struct {
	clustersets  metric.Int64Counter
	elements     metric.Int64Counter
	pairs        metric.Int64Counter
	pairDuration metric.Float64Histogram
	passes       metric.Int64Counter
	errors       metric.Int64Counter
}

// NewCongruencyMetrics creates the instruments from the given meter.
func NewCongruencyMetrics(mt metric.Meter) (*CongruencyMetrics, error) {
	clustersets, err := mt.Int64Counter(metricClustersetsTotal,
		metric.WithDescription("Clusterset files parsed"),
		metric.WithUnit("{clusterset}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricClustersetsTotal, err)
	}

	elements, err := mt.Int64Counter(metricElementsTotal,
		metric.WithDescription("Elements read from clusterset files"),
		metric.WithUnit("{element}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricElementsTotal, err)
	}

	pairs, err := mt.Int64Counter(metricPairsTotal,
		metric.WithDescription("Clusterset pairs compared"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPairsTotal, err)
	}

	pairDur, err := mt.Float64Histogram(metricPairDuration,
		metric.WithDescription("Per-pair congruency computation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPairDuration, err)
	}

	passes, err := mt.Int64Counter(metricPassesTotal,
		metric.WithDescription("Index passes completed"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPassesTotal, err)
	}

	errs, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Failed pair computations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	return &CongruencyMetrics{
		clustersets:  clustersets,
		elements:     elements,
		pairs:        pairs,
		pairDuration: pairDur,
		passes:       passes,
		errors:       errs,
	}, nil
}

// RecordClusterset records one parsed clusterset with n elements.
// Safe to call on a nil receiver (no-op).
func (cm *CongruencyMetrics) RecordClusterset(ctx context.Context, n int) {
	if cm == nil {
		return
	}

	cm.clustersets.Add(ctx, 1)
	cm.elements.Add(ctx, int64(n))
}

// RecordPair records one pair computation for the named index.
// Safe to call on a nil receiver (no-op).
func (cm *CongruencyMetrics) RecordPair(ctx context.Context, index string, d time.Duration, err error) {
	if cm == nil {
		return
	}

	status := statusOK
	if err != nil {
		status = statusError
	}

	attrs := metric.WithAttributes(attribute.String(attrIndex, index), attribute.String(attrStatus, status))

	cm.pairs.Add(ctx, 1, attrs)
	cm.pairDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrIndex, index)))

	if err != nil {
		cm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrIndex, index)))
	}
}

// RecordPass records one completed index pass.
// Safe to call on a nil receiver (no-op).
func (cm *CongruencyMetrics) RecordPass(ctx context.Context, index string) {
	if cm == nil {
		return
	}

	cm.passes.Add(ctx, 1, metric.WithAttributes(attribute.String(attrIndex, index)))
}
