package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for widget reads, weather
// summarization, the payload cache and the forecast collector.
type Metrics struct {
	WidgetFetches       *prometheus.CounterVec   // labels: widget, outcome={ok,not_found,error}
	WidgetFetchDuration *prometheus.HistogramVec // labels: widget
	SummarizeErrors     *prometheus.CounterVec   // labels: reason={malformed,unknown_time}
	PayloadCache        *prometheus.CounterVec   // labels: result={hit,miss,error}
	CollectorRuns       *prometheus.CounterVec   // labels: outcome={ok,fetch_error,invalid,store_error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WidgetFetches,
		m.WidgetFetchDuration,
		m.SummarizeErrors,
		m.PayloadCache,
		m.CollectorRuns,
	)
	return m
}

// NewUnregisteredMetrics creates metrics that are never exported, for
// short-lived processes such as the CLI.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many services as they like.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WidgetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "today_widgets",
			Name:      "widget_fetches_total",
			Help:      "Widget document reads by widget id and outcome.",
		}, []string{"widget", "outcome"}),
		WidgetFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "today_widgets",
			Name:      "widget_fetch_duration_seconds",
			Help:      "Widget document read latency.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"widget"}),
		SummarizeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "today_widgets",
			Name:      "weather_summarize_errors_total",
			Help:      "Forecast documents that could not be summarized.",
		}, []string{"reason"}),
		PayloadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "today_widgets",
			Name:      "payload_cache_total",
			Help:      "Dashboard payload cache lookups by result.",
		}, []string{"result"}),
		CollectorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "today_widgets",
			Name:      "collector_runs_total",
			Help:      "Forecast refresh runs by outcome.",
		}, []string{"outcome"}),
	}
}
