package naivemonitor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// AggregationFailed is returned by every ThreadPoolMonitor aggregation
// method when the pass over the tracked pools could not be completed. It is
// distinguishable from any valid aggregate, which is always >= 0; callers
// must never read it as "zero pools". The failure itself is logged, not
// propagated.
const AggregationFailed int64 = -1

// Pool is the capability set a resource must expose to be tracked by a
// ThreadPoolMonitor. Any worker pool, connection pool or similar bounded
// resource can implement it; the monitor never owns the resource and only
// consults Terminated to decide when to stop tracking it.
type Pool interface {
	// Terminated reports whether the pool has shut down. Once true, the
	// monitor drops the pool from its tracked set on the next aggregation
	// pass.
	Terminated() bool

	// ActiveCount returns the approximate number of workers currently
	// executing tasks.
	ActiveCount() int

	// CorePoolSize returns the configured minimum worker count.
	CorePoolSize() int

	// MaximumPoolSize returns the configured maximum worker count.
	MaximumPoolSize() int

	// PoolSize returns the current worker count.
	PoolSize() int

	// PeakPoolSize returns the largest worker count the pool has reached.
	PeakPoolSize() int
}

// ThreadPoolMonitor aggregates live gauges across a dynamic set of
// registered pools and counts rejected task submissions. Safe for
// concurrent use.
//
// Registered pools are referenced, never owned. A pool that reports itself
// terminated is pruned lazily: the next aggregation pass that sees it
// removes it and excludes it from the sum. Duplicate registration is
// permitted and doubles that pool's contribution to every aggregate.
type ThreadPoolMonitor struct {
	mu    sync.RWMutex
	pools []Pool

	rejected Counter
}

// NewThreadPoolMonitor creates an unregistered ThreadPoolMonitor. Most
// callers want GetThreadPoolMonitor instead.
func NewThreadPoolMonitor() *ThreadPoolMonitor {
	return &ThreadPoolMonitor{}
}

// Register adds p to the tracked set. A nil pool is a silent no-op.
// Registration is append-only; removal happens via lazy pruning once the
// pool reports itself terminated.
func (m *ThreadPoolMonitor) Register(p Pool) {
	if p == nil {
		return
	}
	m.mu.Lock()
	m.pools = append(m.pools, p)
	m.mu.Unlock()
}

// OnRejected records one rejected task submission. Rejections are counted
// independently of the tracked set: the count survives the pruning of the
// pool that issued them.
func (m *ThreadPoolMonitor) OnRejected() {
	m.rejected.Add(1)
}

// RejectedCount returns the cumulative number of rejected task submissions.
func (m *ThreadPoolMonitor) RejectedCount() int64 {
	return m.rejected.Get()
}

// ActiveCount returns the sum of ActiveCount over all live tracked pools,
// or AggregationFailed if the pass could not be completed.
func (m *ThreadPoolMonitor) ActiveCount() int64 {
	return m.collect("active_count", Pool.ActiveCount)
}

// CorePoolSize returns the sum of CorePoolSize over all live tracked pools,
// or AggregationFailed if the pass could not be completed.
func (m *ThreadPoolMonitor) CorePoolSize() int64 {
	return m.collect("core_pool_size", Pool.CorePoolSize)
}

// MaximumPoolSize returns the sum of MaximumPoolSize over all live tracked
// pools, or AggregationFailed if the pass could not be completed.
func (m *ThreadPoolMonitor) MaximumPoolSize() int64 {
	return m.collect("maximum_pool_size", Pool.MaximumPoolSize)
}

// PoolSize returns the sum of PoolSize over all live tracked pools, or
// AggregationFailed if the pass could not be completed.
func (m *ThreadPoolMonitor) PoolSize() int64 {
	return m.collect("pool_size", Pool.PoolSize)
}

// PeakPoolSize returns the sum of PeakPoolSize over all live tracked pools,
// or AggregationFailed if the pass could not be completed. Different pools
// may have peaked at different times, so the sum is indicative only.
func (m *ThreadPoolMonitor) PeakPoolSize() int64 {
	return m.collect("peak_pool_size", Pool.PeakPoolSize)
}

// collect runs one aggregation pass and flattens any failure to the
// sentinel at the public boundary.
func (m *ThreadPoolMonitor) collect(gauge string, read func(Pool) int) int64 {
	total, err := m.sum(read)
	if err != nil {
		logger().Error("thread pool aggregation failed",
			zap.String("gauge", gauge),
			zap.Any("pools", m.snapshot()),
			zap.Error(err))
		return AggregationFailed
	}
	return total
}

// sum iterates a snapshot of the tracked set once, pruning terminated pools
// as a side effect. Pool introspection is caller-supplied code, so the pass
// is guarded against panics; a panic surfaces as an error.
func (m *ThreadPoolMonitor) sum(read func(Pool) int) (total int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pool introspection panicked: %v", r)
		}
	}()
	for _, p := range m.snapshot() {
		if p.Terminated() {
			m.remove(p)
			continue
		}
		total += int64(read(p))
	}
	return total, nil
}

// snapshot copies the tracked set so iteration never races with
// registration or pruning. Entries removed concurrently are simply seen as
// terminated by this pass; entries added concurrently are picked up by the
// next one.
func (m *ThreadPoolMonitor) snapshot() []Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Pool, len(m.pools))
	copy(out, m.pools)
	return out
}

// remove drops the first tracked occurrence of p. With duplicate
// registration each occurrence is visited, and removed, by the same pass.
func (m *ThreadPoolMonitor) remove(p Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.pools {
		if q == p {
			m.pools = append(m.pools[:i], m.pools[i+1:]...)
			return
		}
	}
}

// trackedLen reports the current tracked-set size. Used by tests to observe
// pruning.
func (m *ThreadPoolMonitor) trackedLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pools)
}
