// Package metrics provides Prometheus instrumentation for rootflat.
//
// # Overview
//
// Metrics are registered once on the default registry through promauto:
//   - rootflat_flatten_calls_total{path}: flatten calls by path (flat/ragged)
//   - rootflat_flatten_failures_total{type}: failed calls by error type
//   - rootflat_flatten_rows_total: rows emitted
//   - rootflat_flatten_columns_total: columns emitted
//   - rootflat_flatten_latency_seconds{path}: call latency
//
// # Basic Usage
//
//	timer := metrics.NewTimer("flatten")
//	f, err := flatten.Flatten(fields, opts)
//	metrics.ObserveFlatten("ragged", timer.Stop(), f.Len(), len(f.Columns()))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FlattenCalls counts successful flatten calls.
	// Labels: path (flat/ragged)
	FlattenCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rootflat_flatten_calls_total",
			Help: "Total number of successful flatten calls",
		},
		[]string{"path"},
	)

	// FlattenFailures counts flatten calls that returned an error.
	// Labels: type (error type)
	FlattenFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rootflat_flatten_failures_total",
			Help: "Total number of failed flatten calls",
		},
		[]string{"type"},
	)

	// RowsEmitted counts rows in produced frames
	RowsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rootflat_flatten_rows_total",
			Help: "Total number of rows emitted by flatten",
		},
	)

	// ColumnsEmitted counts columns in produced frames
	ColumnsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rootflat_flatten_columns_total",
			Help: "Total number of columns emitted by flatten",
		},
	)

	// FlattenLatency tracks the distribution of flatten call latency.
	// Labels: path (flat/ragged)
	FlattenLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rootflat_flatten_latency_seconds",
			Help: "Flatten call latency in seconds",
			Buckets: []float64{
				1e-6, // 1μs - tiny inputs
				1e-5,
				1e-4,
				1e-3, // 1ms - typical baskets
				1e-2,
				1e-1,
				1, // 1s - full trees
			},
		},
		[]string{"path"},
	)
)

// ObserveFlatten records a successful flatten call
func ObserveFlatten(path string, d time.Duration, rows, columns int) {
	FlattenCalls.WithLabelValues(path).Inc()
	FlattenLatency.WithLabelValues(path).Observe(d.Seconds())
	RowsEmitted.Add(float64(rows))
	ColumnsEmitted.Add(float64(columns))
}

// ObserveFailure records a failed flatten call
func ObserveFailure(errType string) {
	FlattenFailures.WithLabelValues(errType).Inc()
}

// Timer measures elapsed time for an operation
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the operation name the timer was created with
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// WriteTextfile dumps the default registry in the text exposition format,
// for node_exporter's textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
