// Package metrics provides the Prometheus implementation of the core metrics
// recorder interface.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	coremetrics "github.com/sunkan/Atlas.Orm/pkg/atlas/core/metrics"
)

// PrometheusRecorder is a Prometheus implementation of metrics.MetricRecorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Transaction metrics
	commitCounter   prometheus.Counter
	rollbackCounter prometheus.Counter
	commitItems     prometheus.Histogram

	// Statement metrics
	statementDurationSeconds *prometheus.HistogramVec
	statementErrorCounter    *prometheus.CounterVec
	noopCounter              *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		commitCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapper_transaction_commit_total",
			Help: "Total number of committed units of work.",
		}),
		rollbackCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapper_transaction_rollback_total",
			Help: "Total number of rolled-back units of work.",
		}),
		commitItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapper_transaction_items",
			Help:    "Number of work items per committed unit of work.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		statementDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapper_statement_duration_seconds",
			Help:    "Duration of write statements.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table", "kind"}),
		statementErrorCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapper_statement_errors_total",
			Help: "Total number of write statements that ended with an error.",
		}, []string{"table", "kind"}),
		noopCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapper_write_noop_total",
			Help: "Total number of short-circuited writes (empty dirty set, already-absent delete).",
		}, []string{"table", "kind"}),
	}

	registry.MustRegister(
		r.commitCounter,
		r.rollbackCounter,
		r.commitItems,
		r.statementDurationSeconds,
		r.statementErrorCounter,
		r.noopCounter,
	)
	return r
}

// Registry exposes the recorder's registry, e.g. for an HTTP metrics handler.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordCommit implements metrics.MetricRecorder.
func (r *PrometheusRecorder) RecordCommit(ctx context.Context, items int) {
	r.commitCounter.Inc()
	r.commitItems.Observe(float64(items))
}

// RecordRollback implements metrics.MetricRecorder.
func (r *PrometheusRecorder) RecordRollback(ctx context.Context, completed int) {
	r.rollbackCounter.Inc()
}

// RecordStatement implements metrics.MetricRecorder.
func (r *PrometheusRecorder) RecordStatement(ctx context.Context, table string, kind string, duration time.Duration, err error) {
	r.statementDurationSeconds.WithLabelValues(table, kind).Observe(duration.Seconds())
	if err != nil {
		r.statementErrorCounter.WithLabelValues(table, kind).Inc()
	}
}

// RecordNoop implements metrics.MetricRecorder.
func (r *PrometheusRecorder) RecordNoop(ctx context.Context, table string, kind string) {
	r.noopCounter.WithLabelValues(table, kind).Inc()
}

var _ coremetrics.MetricRecorder = (*PrometheusRecorder)(nil)
