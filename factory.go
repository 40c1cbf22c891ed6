package naivemonitor

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Global manager state. Initialized on first use and intentionally never
// torn down implicitly: like the monitor registries, the manager is
// process-lifetime state.
var (
	globalMu      sync.Mutex
	globalManager Manager
	initOnce      sync.Once
)

// Init initializes the global manager and starts its sampling loop. Only
// the first call has any effect; it also installs config.Logger as the
// package logger so primitive-level warnings share the application's
// logging pipeline.
func Init(config Config) error {
	var initErr error
	initOnce.Do(func() {
		if config.Logger != nil {
			SetLogger(config.Logger)
		}

		mgr, err := NewManager(config)
		if err != nil {
			initErr = err
			return
		}
		mgr.RegisterCollector(NewRuntimeCollector(config.ServiceName, config.Logger))

		if err := mgr.Start(); err != nil {
			initErr = err
			return
		}

		globalMu.Lock()
		globalManager = mgr
		globalMu.Unlock()

		if config.Logger != nil {
			config.Logger.Info("monitor initialized",
				zap.String("namespace", config.Namespace),
				zap.String("subsystem", config.Subsystem),
				zap.String("service", config.ServiceName))
		}
	})
	return initErr
}

// Shutdown stops the global manager's sampling loop.
func Shutdown() {
	globalMu.Lock()
	mgr := globalManager
	globalManager = nil
	globalMu.Unlock()

	if mgr != nil {
		mgr.Stop()
	}
}

func manager() (Manager, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		return nil, fmt.Errorf("monitor is not initialized")
	}
	return globalManager, nil
}

// RegisterCollector registers a custom collector with the global manager.
func RegisterCollector(collector Collector) error {
	mgr, err := manager()
	if err != nil {
		return err
	}
	mgr.RegisterCollector(collector)
	return nil
}

// Flush samples every registered collector and writes immediately, outside
// the regular cadence.
func Flush() error {
	mgr, err := manager()
	if err != nil {
		return err
	}
	return mgr.Flush()
}

// WatchSocket registers a collector over the named socket monitor with the
// global manager and returns the monitor for instrumentation.
func WatchSocket(name string) (*SocketMonitor, error) {
	m := GetSocketMonitor(name)
	if err := RegisterCollector(NewSocketCollector(name, m, nil)); err != nil {
		return nil, err
	}
	return m, nil
}

// WatchCompression registers a collector over the named compression monitor
// with the global manager and returns the monitor for instrumentation.
func WatchCompression(name string) (*CompressionMonitor, error) {
	m := GetCompressionMonitor(name)
	if err := RegisterCollector(NewCompressionCollector(name, m, nil)); err != nil {
		return nil, err
	}
	return m, nil
}

// WatchThreadPool registers a collector over the named thread-pool monitor
// with the global manager and returns the monitor for pool registration.
func WatchThreadPool(name string) (*ThreadPoolMonitor, error) {
	m := GetThreadPoolMonitor(name)
	if err := RegisterCollector(NewThreadPoolCollector(name, m, nil)); err != nil {
		return nil, err
	}
	return m, nil
}
