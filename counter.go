package naivemonitor

import (
	"math"
	"sync/atomic"

	"go.uber.org/zap"
)

// Package-level logger used by primitives that have no constructor-injected
// logger of their own. Defaults to a no-op logger so the hot paths stay
// silent unless the host application opts in.
var pkgLogger atomic.Pointer[zap.Logger]

func init() {
	pkgLogger.Store(zap.NewNop())
}

// SetLogger sets the logger used for overflow warnings and defensive error
// reports. Passing nil restores the no-op logger.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pkgLogger.Store(logger)
}

func logger() *zap.Logger {
	return pkgLogger.Load()
}

// Counter is a monotonically non-decreasing 64-bit counter safe for
// concurrent use by any number of goroutines.
//
// An addition that would exceed math.MaxInt64 saturates the counter at
// math.MaxInt64 and logs a warning; it never wraps to a negative value.
// Saturation is sticky until process restart.
type Counter struct {
	v atomic.Int64
}

// Add increments the counter by delta. Negative deltas are ignored: the
// counter is monotonic from the producer's perspective, and readers derive
// intervals by keeping their own last-observed copy, never by resetting
// the counter itself.
func (c *Counter) Add(delta int64) {
	if delta <= 0 {
		return
	}
	for {
		old := c.v.Load()
		if old == math.MaxInt64 {
			return
		}
		next := old + delta
		if next < old {
			// Overflow. Saturate instead of wrapping.
			if c.v.CompareAndSwap(old, math.MaxInt64) {
				logger().Warn("counter overflow, saturating at max",
					zap.Int64("value", old),
					zap.Int64("delta", delta))
				return
			}
			continue
		}
		if c.v.CompareAndSwap(old, next) {
			return
		}
	}
}

// Get returns the current value. Each counter is independently consistent;
// no ordering is guaranteed across different counters.
func (c *Counter) Get() int64 {
	return c.v.Load()
}
