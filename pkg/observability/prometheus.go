package observability

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
)

// ErrNoRegistry indicates metrics were requested from a run without Prometheus collection.
var ErrNoRegistry = errors.New("observability: prometheus collection disabled")

// newPrometheusReader creates an OTel reader that exposes instruments through
// a private Prometheus registry.
func newPrometheusReader() (*promexporter.Exporter, *prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, registry, nil
}

// WriteMetrics writes a text exposition snapshot of every metric in registry.
func WriteMetrics(w io.Writer, registry *prometheus.Registry) error {
	if registry == nil {
		return ErrNoRegistry
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		_, writeErr := expfmt.MetricFamilyToText(w, mf)
		if writeErr != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), writeErr)
		}
	}

	return nil
}
