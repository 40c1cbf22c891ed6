package naivemonitor

import "sync"

// registry is a process-wide keyed singleton store for one monitor kind.
// Reads are lock-free via sync.Map; only first-time creation takes the
// mutex, with a second lookup inside the critical section so concurrent
// first calls for the same name observe a single instance.
//
// Registry entries live for the life of the process. There is deliberately
// no removal or teardown: monitors are long-lived accumulators and export
// tooling may hold snapshots of them at any time.
type registry[M any] struct {
	monitors sync.Map // string -> *M
	mu       sync.Mutex
	create   func(name string) *M
}

func newRegistry[M any](create func(name string) *M) *registry[M] {
	return &registry[M]{create: create}
}

// get returns the singleton monitor for name, creating it on first call.
// Never returns nil. The create function must not call back into the
// registry.
func (r *registry[M]) get(name string) *M {
	if v, ok := r.monitors.Load(name); ok {
		return v.(*M)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.monitors.Load(name); ok {
		return v.(*M)
	}
	m := r.create(name)
	r.monitors.Store(name, m)
	return m
}

// all returns a snapshot of every registered monitor. The returned slice is
// a defensive copy: registrations after the call are not visible in it.
func (r *registry[M]) all() []*M {
	var out []*M
	r.monitors.Range(func(_, v any) bool {
		out = append(out, v.(*M))
		return true
	})
	return out
}

var (
	socketRegistry      = newRegistry(NewSocketMonitor)
	compressionRegistry = newRegistry(func(string) *CompressionMonitor { return NewCompressionMonitor() })
	threadPoolRegistry  = newRegistry(func(string) *ThreadPoolMonitor { return NewThreadPoolMonitor() })
)

// GetSocketMonitor returns the process-wide SocketMonitor for name,
// creating it on first use. Concurrent first calls for the same name all
// observe the same instance.
func GetSocketMonitor(name string) *SocketMonitor {
	return socketRegistry.get(name)
}

// SocketMonitors returns a snapshot of all registered socket monitors.
func SocketMonitors() []*SocketMonitor {
	return socketRegistry.all()
}

// GetCompressionMonitor returns the process-wide CompressionMonitor for
// name, creating it on first use.
func GetCompressionMonitor(name string) *CompressionMonitor {
	return compressionRegistry.get(name)
}

// CompressionMonitors returns a snapshot of all registered compression
// monitors.
func CompressionMonitors() []*CompressionMonitor {
	return compressionRegistry.all()
}

// GetThreadPoolMonitor returns the process-wide ThreadPoolMonitor for name,
// creating it on first use.
func GetThreadPoolMonitor(name string) *ThreadPoolMonitor {
	return threadPoolRegistry.get(name)
}

// ThreadPoolMonitors returns a snapshot of all registered thread-pool
// monitors.
func ThreadPoolMonitors() []*ThreadPoolMonitor {
	return threadPoolRegistry.all()
}
