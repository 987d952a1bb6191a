// # internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nuxtscan_parsing_seconds",
		Help:    "Time spent parsing a source unit.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect"})

	UnitsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuxtscan_units_parsed_total",
		Help: "Source units parsed, by dialect.",
	}, []string{"dialect"})

	UnitsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nuxtscan_units_skipped_total",
		Help: "Source units skipped because they failed to parse.",
	})

	GraphSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nuxtscan_graph_symbols_total",
		Help: "Symbols in the usage graph after the last run.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nuxtscan_graph_edges_total",
		Help: "Resolved reference edges in the usage graph after the last run.",
	})

	FindingsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nuxtscan_findings",
		Help: "Findings produced by the last run, by category.",
	}, []string{"category"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nuxtscan_analysis_seconds",
		Help:    "Time spent on a pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	AdvisoryQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nuxtscan_advisory_queries_total",
		Help: "Advisory service queries, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nuxtscan_watcher_events_total",
		Help: "Debounced change sets received from the file watcher.",
	})
)
