package bufferpool

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Blackdeer1524/StorageCore/src/bufferpool"

type options struct {
	meterProvider metric.MeterProvider
}

type Option func(*options)

// WithMeterProvider reports pool counters to mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

type poolMetrics struct {
	pins        metric.Int64Counter
	hits        metric.Int64Counter
	evictions   metric.Int64Counter
	exhaustions metric.Int64Counter
}

func newPoolMetrics(mp metric.MeterProvider) (poolMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	pins, err := meter.Int64Counter(
		"bufferpool.pins",
		metric.WithDescription("Number of buffer pins"),
	)
	if err != nil {
		return poolMetrics{}, err
	}

	hits, err := meter.Int64Counter(
		"bufferpool.hits",
		metric.WithDescription("Pins served without reading from disk"),
	)
	if err != nil {
		return poolMetrics{}, err
	}

	evictions, err := meter.Int64Counter(
		"bufferpool.evictions",
		metric.WithDescription("Blocks evicted to make room for another block"),
	)
	if err != nil {
		return poolMetrics{}, err
	}

	exhaustions, err := meter.Int64Counter(
		"bufferpool.exhausted",
		metric.WithDescription("Pins that failed because every buffer was pinned"),
	)
	if err != nil {
		return poolMetrics{}, err
	}

	return poolMetrics{
		pins:        pins,
		hits:        hits,
		evictions:   evictions,
		exhaustions: exhaustions,
	}, nil
}

func (p poolMetrics) pinned() {
	p.pins.Add(context.Background(), 1)
}

func (p poolMetrics) hit() {
	p.hits.Add(context.Background(), 1)
}

func (p poolMetrics) evicted() {
	p.evictions.Add(context.Background(), 1)
}

func (p poolMetrics) exhausted() {
	p.exhaustions.Add(context.Background(), 1)
}
