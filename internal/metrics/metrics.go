package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels queries answered from grounded context.
	OutcomeSuccess = "success"
	// OutcomeFallback labels queries answered through the fallback path.
	OutcomeFallback = "fallback"
	// OutcomeError labels queries rejected before the pipeline ran.
	OutcomeError = "error"
)

// Route labels for queries_total.
const (
	RouteFastPath = "fast_path"
	RouteShortcut = "customer_shortcut"
	RouteGrounded = "grounded"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumen_rag",
			Name:      "queries_total",
			Help:      "Total queries handled, partitioned by route and outcome.",
		},
		[]string{"route", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lumen_rag",
			Name:      "query_seconds",
			Help:      "End-to-end query latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
	)

	retrievalCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumen_rag",
			Name:      "retrieval_calls_total",
			Help:      "Semantic search calls issued, partitioned by corpus and outcome.",
		},
		[]string{"corpus", "outcome"},
	)
)

// Register attaches lumen-rag collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		retrievalCallsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records a handled query's duration, route and outcome.
func ObserveQuery(duration time.Duration, route, outcome string) {
	queriesTotal.WithLabelValues(route, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	queryDurationSeconds.Observe(duration.Seconds())
}

// ObserveRetrievalCall records one semantic search call.
func ObserveRetrievalCall(corpus string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	retrievalCallsTotal.WithLabelValues(corpus, outcome).Inc()
}
