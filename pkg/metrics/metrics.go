package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the earthquake service.
type Metrics struct {
	Mutations      *prometheus.CounterVec // labels: operation={create,update,delete,delete_network}
	ImportedRows   prometheus.Counter
	RejectedRows   prometheus.Counter
	ImportDuration prometheus.Histogram
	SearchResults  prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakedb",
			Name:      "mutations_total",
			Help:      "Earthquake records changed, by operation.",
		}, []string{"operation"}),
		ImportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakedb",
			Name:      "import_rows_imported_total",
			Help:      "CSV rows stored by the bulk importer.",
		}),
		RejectedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakedb",
			Name:      "import_rows_rejected_total",
			Help:      "CSV rows rejected by the bulk importer.",
		}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakedb",
			Name:      "import_duration_seconds",
			Help:      "Duration of a complete CSV import.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakedb",
			Name:      "search_results",
			Help:      "Number of records returned by a latitude search.",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000},
		}),
	}
}

// New creates and registers all metrics with the default Prometheus registry.
func New() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Mutations,
		m.ImportedRows,
		m.RejectedRows,
		m.ImportDuration,
		m.SearchResults,
	)

	return m
}

// NewForTesting creates unregistered metrics, so tests can build as many
// services as they need.
func NewForTesting() *Metrics {
	return newMetrics()
}
