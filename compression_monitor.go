package naivemonitor

// CompressionMonitor accumulates cumulative byte counts before and after a
// compression step. Safe for concurrent use.
//
// The two counters only ever grow; a collector derives per-interval savings
// from them without the monitor ever being reset.
type CompressionMonitor struct {
	preCompressed Counter
	compressed    Counter
}

// NewCompressionMonitor creates an unregistered CompressionMonitor. Most
// callers want GetCompressionMonitor instead.
func NewCompressionMonitor() *CompressionMonitor {
	return &CompressionMonitor{}
}

// OnCompressed records one compression operation: pre is the input size in
// bytes, post the compressed output size.
func (m *CompressionMonitor) OnCompressed(pre, post int64) {
	m.preCompressed.Add(pre)
	m.compressed.Add(post)
}

// PreCompressed returns the cumulative input bytes fed to compression.
func (m *CompressionMonitor) PreCompressed() int64 {
	return m.preCompressed.Get()
}

// Compressed returns the cumulative output bytes produced by compression.
func (m *CompressionMonitor) Compressed() int64 {
	return m.compressed.Get()
}
