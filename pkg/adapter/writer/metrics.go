package writer

import (
	"context"
	"time"

	"github.com/vnykmshr/streambridge/pkg/metrics"
	"github.com/vnykmshr/streambridge/pkg/sequence"
	"github.com/vnykmshr/streambridge/pkg/streamio"
)

// MetricsAdapter wraps a WriteAdapter with Prometheus metrics collection.
type MetricsAdapter struct {
	adapter  WriteAdapter
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a WriteAdapter that reports to the default metrics
// registry under the given adapter name.
func NewWithMetrics(sink streamio.Sink, name string) (WriteAdapter, error) {
	return NewWithConfigAndMetrics(sink, DefaultConfig(), name, metrics.Config{Enabled: true})
}

// NewWithConfigAndMetrics creates a WriteAdapter with custom config and
// metrics configuration.
func NewWithConfigAndMetrics(sink streamio.Sink, config Config, name string, metricsConfig metrics.Config) (WriteAdapter, error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(sink, config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	// Bytes, backpressure and terminal errors surface through the config
	// hooks so writes issued by WriteAll retries and attached producers are
	// counted too, not just direct calls on the wrapper.
	prevWrite := config.OnWrite
	config.OnWrite = func(n int) {
		registry.WriterBytes.WithLabelValues(name).Add(float64(n))
		if prevWrite != nil {
			prevWrite(n)
		}
	}
	prevBackpressure := config.OnBackpressure
	config.OnBackpressure = func() {
		registry.BackpressureEvents.WithLabelValues(name).Inc()
		if prevBackpressure != nil {
			prevBackpressure()
		}
	}
	prevError := config.OnError
	config.OnError = func(err error) {
		registry.WriterErrors.WithLabelValues(name).Inc()
		if prevError != nil {
			prevError(err)
		}
	}

	base, err := NewWithConfig(sink, config)
	if err != nil {
		return nil, err
	}

	registry.AdaptersOpen.WithLabelValues("writer").Inc()

	return &MetricsAdapter{
		adapter:  base,
		name:     name,
		registry: registry,
	}, nil
}

// Write implements WriteAdapter.Write.
func (ma *MetricsAdapter) Write(p []byte) (int, error) {
	n, err := ma.adapter.Write(p)

	ma.registry.WriterCalls.WithLabelValues(ma.name).Inc()
	if err == nil && n < len(p) {
		ma.registry.WriterPartialWrites.WithLabelValues(ma.name).Inc()
	}

	return n, err
}

// WriteAll implements WriteAdapter.WriteAll.
func (ma *MetricsAdapter) WriteAll(ctx context.Context, p []byte) error {
	start := time.Now()
	err := ma.adapter.WriteAll(ctx, p)
	ma.registry.WriteWaitDuration.WithLabelValues(ma.name).Observe(time.Since(start).Seconds())
	return err
}

// SpaceSignals implements WriteAdapter.SpaceSignals.
func (ma *MetricsAdapter) SpaceSignals() (*sequence.Sequence[bool], error) {
	return ma.adapter.SpaceSignals()
}

// AttachProducer implements WriteAdapter.AttachProducer.
func (ma *MetricsAdapter) AttachProducer(ctx context.Context, src sequence.Source[[]byte]) error {
	err := ma.adapter.AttachProducer(ctx, src)
	if err == nil && src != nil {
		ma.registry.ProducerSwaps.WithLabelValues(ma.name).Inc()
	}
	return err
}

// Stats implements WriteAdapter.Stats.
func (ma *MetricsAdapter) Stats() Stats {
	return ma.adapter.Stats()
}

// IsClosed implements WriteAdapter.IsClosed.
func (ma *MetricsAdapter) IsClosed() bool {
	return ma.adapter.IsClosed()
}

// Close implements WriteAdapter.Close.
func (ma *MetricsAdapter) Close() error {
	wasClosed := ma.adapter.IsClosed()
	err := ma.adapter.Close()
	if !wasClosed {
		ma.registry.AdaptersOpen.WithLabelValues("writer").Dec()
	}
	return err
}
