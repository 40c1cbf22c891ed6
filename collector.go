package naivemonitor

import (
	"time"

	"go.uber.org/zap"
)

// Collector converts monitor state into a batch of samples. Implementations
// are invoked on a fixed cadence by a single scheduler goroutine; invoking
// the same Collector instance concurrently is a caller contract violation
// and is not runtime-checked.
//
// A Collector owns whatever last-observed state it needs to derive deltas.
// It must never mutate the monitors it reads, and Collect must never return
// nil: an empty batch is the way to report nothing.
type Collector interface {
	// Collect returns the samples for this invocation.
	Collect() []Metric

	// Name returns the stable metric-family identifier prefixed onto every
	// sample name this collector emits.
	Name() string
}

// Metric is a single immutable sample produced by a Collector invocation.
type Metric struct {
	Name       string
	Value      float64
	Labels     map[string]string
	MetricType MetricType
	Timestamp  time.Time
}

// MetricType classifies a sample for exporters that distinguish counters
// from gauges.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
)

// BaseCollector carries the metric-family name and logger shared by the
// concrete collectors.
type BaseCollector struct {
	name   string
	logger *zap.Logger
}

// NewBaseCollector creates a base collector. A nil logger falls back to the
// package logger.
func NewBaseCollector(name string, logger *zap.Logger) BaseCollector {
	return BaseCollector{
		name:   name,
		logger: logger,
	}
}

// Name implements Collector.
func (b *BaseCollector) Name() string {
	return b.name
}

// metricName prefixes a sample name with the metric-family identifier so
// samples from different collector instances never collide.
func (b *BaseCollector) metricName(suffix string) string {
	return b.name + suffix
}
