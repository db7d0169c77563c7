// Package metrics records secret lookup activity as Prometheus metrics.
//
// A CLI run is short-lived, so nothing is served over HTTP. Callers that want
// the numbers pass --metrics-textfile and the registry is written out in text
// exposition format when the command finishes, ready for node_exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup sources, used as the "source" label.
const (
	SourceCache = "cache"
	SourceGCP   = "gcp"
	SourceEnv   = "env"
	SourceNone  = "none"
)

// Metrics holds the lookup collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	lookupsTotal        *prometheus.CounterVec
	remoteFailuresTotal *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	writesTotal         *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gcptoolkit_secret_lookups_total",
				Help: "Secret lookups by the source that answered them",
			},
			[]string{"source"},
		),
		remoteFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gcptoolkit_remote_failures_total",
				Help: "Failed Secret Manager calls by failure kind",
			},
			[]string{"operation", "kind"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gcptoolkit_remote_duration_seconds",
				Help:    "Duration of Secret Manager calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		writesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gcptoolkit_secret_writes_total",
				Help: "Secret writes by outcome",
			},
			[]string{"status"},
		),
	}

	// Every source is exported from the start, even at zero.
	for _, source := range []string{SourceCache, SourceGCP, SourceEnv, SourceNone} {
		m.lookupsTotal.WithLabelValues(source)
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordLookup counts a finished lookup against the source that served it.
func (m *Metrics) RecordLookup(source string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(source).Inc()
}

// RecordRemote observes one Secret Manager call. kind is empty on success.
func (m *Metrics) RecordRemote(operation, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	m.RecordRemoteFailure(operation, kind)
}

// RecordRemoteFailure counts a failure that happened before any call was
// made, such as an unresolved project. An empty kind records nothing.
func (m *Metrics) RecordRemoteFailure(operation, kind string) {
	if m == nil || kind == "" {
		return
	}
	m.remoteFailuresTotal.WithLabelValues(operation, kind).Inc()
}

// RecordWrite counts a secret write.
func (m *Metrics) RecordWrite(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.writesTotal.WithLabelValues(status).Inc()
}

// WriteTextfile dumps the registry to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
