// Package naivemonitor is a lightweight in-process metrics collection layer:
// thread-safe monitors that accumulate runtime counters (socket I/O,
// thread-pool saturation, compression savings) and collectors that turn the
// accumulated state into periodic delta-based samples.
//
// Design goals:
//   - Writers never block readers: counters are atomic, monitor sets are
//     iterated over snapshots, and only first-time registry creation locks
//   - Monitors are process-wide singletons obtained by name; one instance
//     per name, for the life of the process
//   - Nothing here is fatal to the host application: overflow saturates,
//     failed aggregation returns a documented sentinel, a panicking
//     collector is contained and logged
//
// Basic usage:
//
//	config := naivemonitor.DefaultConfig()
//	config.ServiceName = "gateway"
//	config.RemoteWriteURL = "http://prometheus:9090/api/v1/write"
//
//	if err := naivemonitor.Init(config); err != nil {
//	  log.Fatal(err)
//	}
//	defer naivemonitor.Shutdown()
//
//	sock, _ := naivemonitor.WatchSocket("gateway_upstream")
//	sock.OnRead(n)
//
//	pools, _ := naivemonitor.WatchThreadPool("gateway_workers")
//	pools.Register(myPool)
package naivemonitor
