package naivemonitor

// SocketMonitor accumulates socket I/O statistics for one named channel
// (typically one remote host). Safe for concurrent use.
//
// Obtain instances through GetSocketMonitor so each channel has exactly one
// monitor process-wide.
type SocketMonitor struct {
	name string

	readCount    Counter
	readBytes    Counter
	writtenCount Counter
	writtenBytes Counter
}

// NewSocketMonitor creates an unregistered SocketMonitor. Most callers want
// GetSocketMonitor instead.
func NewSocketMonitor(name string) *SocketMonitor {
	return &SocketMonitor{name: name}
}

// Name returns the channel name this monitor was registered under.
func (m *SocketMonitor) Name() string {
	return m.name
}

// OnRead records one completed socket read of n bytes.
func (m *SocketMonitor) OnRead(n int64) {
	m.readCount.Add(1)
	m.readBytes.Add(n)
}

// OnWritten records one completed socket write of n bytes.
func (m *SocketMonitor) OnWritten(n int64) {
	m.writtenCount.Add(1)
	m.writtenBytes.Add(n)
}

// ReadCount returns the cumulative number of read operations.
func (m *SocketMonitor) ReadCount() int64 { return m.readCount.Get() }

// ReadBytes returns the cumulative number of bytes read.
func (m *SocketMonitor) ReadBytes() int64 { return m.readBytes.Get() }

// WrittenCount returns the cumulative number of write operations.
func (m *SocketMonitor) WrittenCount() int64 { return m.writtenCount.Get() }

// WrittenBytes returns the cumulative number of bytes written.
func (m *SocketMonitor) WrittenBytes() int64 { return m.writtenBytes.Get() }
