package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation service.
type Metrics struct {
	ReportsSubmitted   prometheus.Counter
	ClusterEvaluations *prometheus.CounterVec // labels: outcome={promoted,below_threshold,error}
	ClustersPromoted   prometheus.Counter

	NearbyQueries       *prometheus.CounterVec // labels: outcome={ok,degraded}
	NearbyQueryDuration prometheus.Histogram
	NearbyEventsServed  prometheus.Histogram

	ModerationActions *prometheus.CounterVec // labels: action={approve,reject,edit,hide,delete}
	FeedPublishes     *prometheus.CounterVec // labels: outcome={success,error}
	GeocodeRequests   *prometheus.CounterVec // labels: outcome={success,error,empty}
	StoreErrors       prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.ClusterEvaluations,
		m.ClustersPromoted,
		m.NearbyQueries,
		m.NearbyQueryDuration,
		m.NearbyEventsServed,
		m.ModerationActions,
		m.FeedPublishes,
		m.GeocodeRequests,
		m.StoreErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	const ns = "incident_agg"

	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "reports_submitted_total",
			Help:      "Total reports accepted for persistence.",
		}),
		ClusterEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cluster_evaluations_total",
			Help:      "Cluster evaluations by outcome.",
		}, []string{"outcome"}),
		ClustersPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "clusters_promoted_total",
			Help:      "Total cluster promotions (including re-upserts of standing events).",
		}),
		NearbyQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "nearby_queries_total",
			Help:      "Nearby queries by outcome.",
		}, []string{"outcome"}),
		NearbyQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "nearby_query_duration_seconds",
			Help:      "Duration of a nearby query, load through ranking.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		NearbyEventsServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "nearby_events_served",
			Help:      "Number of events returned per nearby query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		ModerationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "moderation_actions_total",
			Help:      "Completed moderation actions by kind.",
		}, []string{"action"}),
		FeedPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "feed_publishes_total",
			Help:      "Nearby-event feed publish attempts by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "geocode_requests_total",
			Help:      "Forward geocoding attempts by outcome.",
		}, []string{"outcome"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "store_errors_total",
			Help:      "Storage operations that failed as backend-unavailable.",
		}),
	}
}
