package reader

import (
	"github.com/vnykmshr/streambridge/pkg/metrics"
	"github.com/vnykmshr/streambridge/pkg/sequence"
	"github.com/vnykmshr/streambridge/pkg/streamio"
)

// MetricsAdapter wraps a ReadAdapter with Prometheus metrics collection.
// Chunk and error counts are fed by the adapter's hooks, so every yield is
// observed regardless of how the sequence is consumed.
type MetricsAdapter struct {
	adapter  ReadAdapter
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a ReadAdapter that reports to the default metrics
// registry under the given adapter name.
func NewWithMetrics(src streamio.Source, name string) (ReadAdapter, error) {
	return NewWithConfigAndMetrics(src, DefaultConfig(), name, metrics.Config{Enabled: true})
}

// NewWithConfigAndMetrics creates a ReadAdapter with custom config and
// metrics configuration.
func NewWithConfigAndMetrics(src streamio.Source, config Config, name string, metricsConfig metrics.Config) (ReadAdapter, error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(src, config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	prevChunk := config.OnChunk
	config.OnChunk = func(chunk []byte) {
		registry.ReaderChunks.WithLabelValues(name).Inc()
		registry.ReaderBytes.WithLabelValues(name).Add(float64(len(chunk)))
		if prevChunk != nil {
			prevChunk(chunk)
		}
	}
	prevError := config.OnError
	config.OnError = func(err error) {
		registry.ReaderErrors.WithLabelValues(name).Inc()
		if prevError != nil {
			prevError(err)
		}
	}

	base, err := NewWithConfig(src, config)
	if err != nil {
		return nil, err
	}

	registry.AdaptersOpen.WithLabelValues("reader").Inc()

	return &MetricsAdapter{
		adapter:  base,
		name:     name,
		registry: registry,
	}, nil
}

// Subscribe implements ReadAdapter.Subscribe.
func (ma *MetricsAdapter) Subscribe() (*sequence.Sequence[[]byte], error) {
	return ma.adapter.Subscribe()
}

// Stats implements ReadAdapter.Stats.
func (ma *MetricsAdapter) Stats() Stats {
	return ma.adapter.Stats()
}

// IsClosed implements ReadAdapter.IsClosed.
func (ma *MetricsAdapter) IsClosed() bool {
	return ma.adapter.IsClosed()
}

// Close implements ReadAdapter.Close.
func (ma *MetricsAdapter) Close() error {
	wasClosed := ma.adapter.IsClosed()
	err := ma.adapter.Close()
	if !wasClosed {
		ma.registry.AdaptersOpen.WithLabelValues("reader").Dec()
	}
	return err
}
