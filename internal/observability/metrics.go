package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submissions created per type.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_submissions_total",
		Help: "Total number of vendor product submissions by type",
	}, []string{"type"})

	// SubmissionReviewsTotal counts review decisions by outcome.
	SubmissionReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_submission_reviews_total",
		Help: "Total number of submission review decisions by outcome",
	}, []string{"outcome"})

	// CatalogWritesTotal counts site-state document writes by origin.
	CatalogWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_catalog_writes_total",
		Help: "Total number of site-state document writes",
	}, []string{"origin"})

	// CatalogProducts is the product count of the most recently written catalog.
	CatalogProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "atelier_catalog_products",
		Help: "Number of products in the catalog after the last write",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atelier_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
