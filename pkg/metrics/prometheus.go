package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsIngested *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cacheResults *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		rowsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coe_rows_ingested_total",
				Help: "Raw bidding rows seen by ingestion, by outcome",
			},
			[]string{"source", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coe_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coe_query_cache_total",
				Help: "Query cache lookups by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coe_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordIngest records accepted and dropped rows for one batch.
func (r *Recorder) RecordIngest(source string, accepted, dropped int) {
	r.rowsIngested.WithLabelValues(source, "accepted").Add(float64(accepted))
	r.rowsIngested.WithLabelValues(source, "dropped").Add(float64(dropped))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheResult records a cache hit or miss for a query endpoint.
func (r *Recorder) RecordCacheResult(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheResults.WithLabelValues(endpoint, result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
