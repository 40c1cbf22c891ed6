package naivemonitor

import (
	"time"

	"go.uber.org/zap"
)

// deltaTracker turns a cumulative counter into per-interval deltas by
// remembering the last observed value. When the cumulative value regresses
// (process restart upstream, counter reset) it re-baselines: the new value
// becomes both the delta and the baseline, exactly what a fresh tracker
// would emit on its first observation. Deltas therefore never go negative
// after a regression and later intervals are not corrupted.
type deltaTracker struct {
	last int64
}

func (d *deltaTracker) next(current int64) int64 {
	delta := current - d.last
	if current < d.last {
		delta = current
	}
	d.last = current
	return delta
}

// CompressionCollector emits the bytes saved by compression during each
// sampling interval, derived from a CompressionMonitor's cumulative
// pre/post counters. One scheduler goroutine per instance.
type CompressionCollector struct {
	BaseCollector
	monitor *CompressionMonitor
	reduced deltaTracker
}

// NewCompressionCollector creates a collector over monitor. name is the
// metric-family prefix for every emitted sample.
func NewCompressionCollector(name string, monitor *CompressionMonitor, logger *zap.Logger) *CompressionCollector {
	return &CompressionCollector{
		BaseCollector: NewBaseCollector(name, logger),
		monitor:       monitor,
	}
}

// Collect implements Collector.
func (c *CompressionCollector) Collect() []Metric {
	reduced := c.monitor.PreCompressed() - c.monitor.Compressed()
	return []Metric{{
		Name:       c.metricName("_compression_reduce_bytes"),
		Value:      float64(c.reduced.next(reduced)),
		Labels:     map[string]string{},
		MetricType: TypeCounter,
		Timestamp:  time.Now(),
	}}
}

// SocketCollector emits per-interval socket I/O deltas derived from a
// SocketMonitor's cumulative counters. One scheduler goroutine per
// instance.
type SocketCollector struct {
	BaseCollector
	monitor *SocketMonitor

	readCount    deltaTracker
	readBytes    deltaTracker
	writtenCount deltaTracker
	writtenBytes deltaTracker
}

// NewSocketCollector creates a collector over monitor. name is the
// metric-family prefix for every emitted sample.
func NewSocketCollector(name string, monitor *SocketMonitor, logger *zap.Logger) *SocketCollector {
	return &SocketCollector{
		BaseCollector: NewBaseCollector(name, logger),
		monitor:       monitor,
	}
}

// Collect implements Collector.
func (c *SocketCollector) Collect() []Metric {
	now := time.Now()
	counter := func(suffix string, delta int64) Metric {
		return Metric{
			Name:       c.metricName(suffix),
			Value:      float64(delta),
			Labels:     map[string]string{},
			MetricType: TypeCounter,
			Timestamp:  now,
		}
	}
	return []Metric{
		counter("_socket_read_count", c.readCount.next(c.monitor.ReadCount())),
		counter("_socket_read_bytes", c.readBytes.next(c.monitor.ReadBytes())),
		counter("_socket_written_count", c.writtenCount.next(c.monitor.WrittenCount())),
		counter("_socket_written_bytes", c.writtenBytes.next(c.monitor.WrittenBytes())),
	}
}

// ThreadPoolCollector emits live pool gauges plus the per-interval rejected
// task delta from a ThreadPoolMonitor. Gauge samples pass the
// AggregationFailed sentinel through unchanged: a -1 sample means the
// aggregation pass failed, never an empty pool set.
type ThreadPoolCollector struct {
	BaseCollector
	monitor  *ThreadPoolMonitor
	rejected deltaTracker
}

// NewThreadPoolCollector creates a collector over monitor. name is the
// metric-family prefix for every emitted sample.
func NewThreadPoolCollector(name string, monitor *ThreadPoolMonitor, logger *zap.Logger) *ThreadPoolCollector {
	return &ThreadPoolCollector{
		BaseCollector: NewBaseCollector(name, logger),
		monitor:       monitor,
	}
}

// Collect implements Collector.
func (c *ThreadPoolCollector) Collect() []Metric {
	now := time.Now()
	gauge := func(suffix string, value int64) Metric {
		return Metric{
			Name:       c.metricName(suffix),
			Value:      float64(value),
			Labels:     map[string]string{},
			MetricType: TypeGauge,
			Timestamp:  now,
		}
	}
	metrics := []Metric{
		gauge("_threadPool_active_count", c.monitor.ActiveCount()),
		gauge("_threadPool_core_pool_size", c.monitor.CorePoolSize()),
		gauge("_threadPool_maximum_pool_size", c.monitor.MaximumPoolSize()),
		gauge("_threadPool_pool_size", c.monitor.PoolSize()),
		gauge("_threadPool_peak_pool_size", c.monitor.PeakPoolSize()),
	}
	metrics = append(metrics, Metric{
		Name:       c.metricName("_threadPool_rejected_count"),
		Value:      float64(c.rejected.next(c.monitor.RejectedCount())),
		Labels:     map[string]string{},
		MetricType: TypeCounter,
		Timestamp:  now,
	})
	return metrics
}
