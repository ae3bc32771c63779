// Package metrics provides Prometheus instrumentation for streambridge
// adapters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for streambridge components.
type Registry struct {
	// Read Adapter Metrics
	ReaderChunks *prometheus.CounterVec
	ReaderBytes  *prometheus.CounterVec
	ReaderErrors *prometheus.CounterVec

	// Write Adapter Metrics
	WriterBytes         *prometheus.CounterVec
	WriterCalls         *prometheus.CounterVec
	WriterPartialWrites *prometheus.CounterVec
	WriterErrors        *prometheus.CounterVec
	BackpressureEvents  *prometheus.CounterVec
	WriteWaitDuration   *prometheus.HistogramVec
	ProducerSwaps       *prometheus.CounterVec

	// Lifecycle Metrics
	AdaptersOpen *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by streambridge
// components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// Config holds metrics configuration for adapters.
type Config struct {
	// Enabled turns metrics collection on.
	Enabled bool

	// Registry is the Prometheus registerer to use; nil means the default
	// registerer.
	Registry prometheus.Registerer
}

// NewRegistry creates a new metrics registry with the given Prometheus
// registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ReaderChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "reader",
				Name:      "chunks_total",
				Help:      "Total number of chunks yielded to subscribers",
			},
			[]string{"adapter_name"},
		),

		ReaderBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "reader",
				Name:      "bytes_read_total",
				Help:      "Total number of bytes read from sources",
			},
			[]string{"adapter_name"},
		),

		ReaderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "reader",
				Name:      "errors_total",
				Help:      "Total number of terminal source errors observed",
			},
			[]string{"adapter_name"},
		),

		WriterBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "bytes_written_total",
				Help:      "Total number of bytes accepted by sinks",
			},
			[]string{"adapter_name"},
		),

		WriterCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "write_calls_total",
				Help:      "Total number of write calls",
			},
			[]string{"adapter_name"},
		),

		WriterPartialWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "partial_writes_total",
				Help:      "Total number of write calls accepting fewer bytes than requested",
			},
			[]string{"adapter_name"},
		),

		WriterErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "errors_total",
				Help:      "Total number of write or sink errors observed",
			},
			[]string{"adapter_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "backpressure_events_total",
				Help:      "Total number of space-unavailable signals emitted",
			},
			[]string{"adapter_name"},
		),

		WriteWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "write_wait_seconds",
				Help:      "Time WriteAll calls spent waiting for sink space",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"adapter_name"},
		),

		ProducerSwaps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streambridge",
				Subsystem: "writer",
				Name:      "producer_swaps_total",
				Help:      "Total number of producer tasks started",
			},
			[]string{"adapter_name"},
		),

		AdaptersOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streambridge",
				Subsystem: "adapter",
				Name:      "open",
				Help:      "Number of currently open adapters",
			},
			[]string{"kind"},
		),
	}
}
