package naivemonitor

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// RuntimeCollector samples live Go runtime gauges for the host process:
// heap usage, goroutine count and GC activity. Unlike the delta collectors
// it keeps no state between invocations.
type RuntimeCollector struct {
	BaseCollector
}

// NewRuntimeCollector creates a runtime collector. name is the
// metric-family prefix for every emitted sample.
func NewRuntimeCollector(name string, logger *zap.Logger) *RuntimeCollector {
	return &RuntimeCollector{
		BaseCollector: NewBaseCollector(name, logger),
	}
}

// Collect implements Collector.
func (c *RuntimeCollector) Collect() []Metric {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	now := time.Now()
	sample := func(suffix string, value float64, t MetricType) Metric {
		return Metric{
			Name:       c.metricName(suffix),
			Value:      value,
			Labels:     map[string]string{},
			MetricType: t,
			Timestamp:  now,
		}
	}
	return []Metric{
		sample("_runtime_heap_alloc_bytes", float64(ms.HeapAlloc), TypeGauge),
		sample("_runtime_heap_sys_bytes", float64(ms.HeapSys), TypeGauge),
		sample("_runtime_goroutines", float64(runtime.NumGoroutine()), TypeGauge),
		sample("_runtime_gc_runs", float64(ms.NumGC), TypeCounter),
		sample("_runtime_gc_pause_ns", float64(ms.PauseTotalNs), TypeCounter),
	}
}
