// Package metrics exports the aggregates of one analysis run in the Prometheus
// text format, for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/user/sdsec/pkg/engine"
)

// Exporter holds the gauges for a single run on a private registry.
type Exporter struct {
	namespace string
	registry  *prometheus.Registry

	averageExposure    prometheus.Gauge
	averageHappiness   prometheus.Gauge
	unitsTotal         prometheus.Gauge
	unitsSkipped       prometheus.Gauge
	unitsByPredicate   *prometheus.GaugeVec
	selectedUnitExpose *prometheus.GaugeVec
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithNamespace sets the metric name prefix (default "sdsec").
func WithNamespace(ns string) Option {
	return func(e *Exporter) {
		e.namespace = ns
	}
}

func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		namespace: "sdsec",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}

	auto := promauto.With(e.registry)
	e.averageExposure = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "average_exposure",
		Help:      "Mean exposure over all parsed units (NaN when none)",
	})
	e.averageHappiness = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "average_happiness",
		Help:      "Mean happiness score over units with a recognized symbol (NaN when none)",
	})
	e.unitsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "units_total",
		Help:      "Number of units parsed from the analyzer output",
	})
	e.unitsSkipped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "units_skipped_total",
		Help:      "Number of analyzer entries skipped as malformed",
	})
	e.unitsByPredicate = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "units_by_predicate",
		Help:      "Number of parsed units per exposure predicate",
	}, []string{"predicate"})
	e.selectedUnitExpose = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Name:      "unit_exposure",
		Help:      "Exposure of each unit in the selected report",
	}, []string{"unit", "predicate"})

	return e
}

// Observe records a run summary, replacing anything observed before.
func (e *Exporter) Observe(s *engine.Summary) {
	e.averageExposure.Set(s.Result.AverageExposure.Float64())
	e.averageHappiness.Set(s.Result.AverageHappiness.Float64())
	e.unitsTotal.Set(float64(s.Total))
	e.unitsSkipped.Set(float64(s.Skipped))

	e.unitsByPredicate.Reset()
	for predicate, n := range s.ByPredicate {
		e.unitsByPredicate.WithLabelValues(predicate).Set(float64(n))
	}

	e.selectedUnitExpose.Reset()
	for _, r := range s.Result.SelectedRecords {
		e.selectedUnitExpose.WithLabelValues(r.Unit, r.Predicate).Set(r.Exposure)
	}
}

// Gatherer exposes the private registry.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// WriteTextfile atomically writes the current values to path.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}
