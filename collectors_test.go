package naivemonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaTrackerSequence(t *testing.T) {
	var d deltaTracker
	assert.Equal(t, int64(10), d.next(10))
	assert.Equal(t, int64(5), d.next(15))
	assert.Equal(t, int64(0), d.next(15))
	assert.Equal(t, int64(85), d.next(100))
}

func TestDeltaTrackerRebaselinesOnRegression(t *testing.T) {
	var d deltaTracker
	d.next(100)

	// Upstream reset: the new cumulative value becomes the fresh baseline
	// and the interval's delta. Never negative.
	assert.Equal(t, int64(7), d.next(7))
	assert.Equal(t, int64(3), d.next(10))
}

func TestCompressionCollectorDeltaSequence(t *testing.T) {
	m := NewCompressionMonitor()
	c := NewCompressionCollector("memcached", m, nil)

	// pre=100, post=100: nothing saved yet.
	m.OnCompressed(100, 100)
	metrics := c.Collect()
	require.Len(t, metrics, 1)
	assert.Equal(t, "memcached_compression_reduce_bytes", metrics[0].Name)
	assert.Equal(t, float64(0), metrics[0].Value)

	// Cumulative pre=150, post=120: 30 saved in total, 30 this interval.
	m.OnCompressed(50, 20)
	metrics = c.Collect()
	require.Len(t, metrics, 1)
	assert.Equal(t, float64(30), metrics[0].Value)

	// Cumulative pre=300, post=220: 80 saved in total, 50 this interval.
	m.OnCompressed(150, 100)
	metrics = c.Collect()
	require.Len(t, metrics, 1)
	assert.Equal(t, float64(50), metrics[0].Value)
}

func TestCompressionCollectorDoesNotMutateMonitor(t *testing.T) {
	m := NewCompressionMonitor()
	m.OnCompressed(500, 200)
	c := NewCompressionCollector("redis", m, nil)

	c.Collect()
	c.Collect()

	assert.Equal(t, int64(500), m.PreCompressed())
	assert.Equal(t, int64(200), m.Compressed())
}

func TestSocketCollectorDeltas(t *testing.T) {
	m := NewSocketMonitor("upstream")
	c := NewSocketCollector("gateway", m, nil)

	m.OnRead(100)
	m.OnRead(50)
	m.OnWritten(30)

	metrics := c.Collect()
	require.Len(t, metrics, 4)
	byName := metricsByName(metrics)
	assert.Equal(t, float64(2), byName["gateway_socket_read_count"])
	assert.Equal(t, float64(150), byName["gateway_socket_read_bytes"])
	assert.Equal(t, float64(1), byName["gateway_socket_written_count"])
	assert.Equal(t, float64(30), byName["gateway_socket_written_bytes"])

	// Quiet interval reports zero deltas, not cumulative totals.
	byName = metricsByName(c.Collect())
	assert.Equal(t, float64(0), byName["gateway_socket_read_bytes"])
	assert.Equal(t, float64(0), byName["gateway_socket_written_count"])
}

func TestThreadPoolCollectorGaugesAndRejectedDelta(t *testing.T) {
	m := NewThreadPoolMonitor()
	m.Register(&fakePool{active: 2, core: 4, maximum: 8, size: 5, peak: 6})
	c := NewThreadPoolCollector("workers", m, nil)

	m.OnRejected()
	m.OnRejected()

	byName := metricsByName(c.Collect())
	assert.Equal(t, float64(2), byName["workers_threadPool_active_count"])
	assert.Equal(t, float64(4), byName["workers_threadPool_core_pool_size"])
	assert.Equal(t, float64(8), byName["workers_threadPool_maximum_pool_size"])
	assert.Equal(t, float64(5), byName["workers_threadPool_pool_size"])
	assert.Equal(t, float64(6), byName["workers_threadPool_peak_pool_size"])
	assert.Equal(t, float64(2), byName["workers_threadPool_rejected_count"])

	// Rejections are exported as per-interval deltas.
	m.OnRejected()
	byName = metricsByName(c.Collect())
	assert.Equal(t, float64(1), byName["workers_threadPool_rejected_count"])
}

func TestThreadPoolCollectorPassesSentinelThrough(t *testing.T) {
	SetLogger(nil)
	m := NewThreadPoolMonitor()
	m.Register(&panicPool{})
	c := NewThreadPoolCollector("workers", m, nil)

	byName := metricsByName(c.Collect())
	assert.Equal(t, float64(AggregationFailed), byName["workers_threadPool_active_count"])
	assert.Equal(t, float64(AggregationFailed), byName["workers_threadPool_pool_size"])
}

func TestCollectorsNeverReturnNil(t *testing.T) {
	var cs []Collector
	cs = append(cs,
		NewCompressionCollector("a", NewCompressionMonitor(), nil),
		NewSocketCollector("b", NewSocketMonitor("b"), nil),
		NewThreadPoolCollector("c", NewThreadPoolMonitor(), nil),
		NewRuntimeCollector("d", nil),
	)
	for _, c := range cs {
		assert.NotNil(t, c.Collect(), "collector %s returned nil", c.Name())
	}
}

func TestRuntimeCollectorEmitsGauges(t *testing.T) {
	c := NewRuntimeCollector("svc", nil)
	byName := metricsByName(c.Collect())
	assert.Greater(t, byName["svc_runtime_heap_alloc_bytes"], float64(0))
	assert.GreaterOrEqual(t, byName["svc_runtime_goroutines"], float64(1))
}

func metricsByName(metrics []Metric) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m.Name] = m.Value
	}
	return out
}
