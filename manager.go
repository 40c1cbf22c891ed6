package naivemonitor

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eryajf/promwrite"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// Config configures a Manager.
type Config struct {
	// Service identification, used to prefix and label exported samples.
	Namespace   string
	Subsystem   string
	ServiceName string

	// Remote write target. Leave RemoteWriteURL empty to run collection
	// without export.
	RemoteWriteURL      string
	RemoteWriteInterval time.Duration

	// Instance information attached to every exported sample.
	InstanceIP   string
	CustomLabels map[string]string

	// Optional logger. Nil falls back to the package logger.
	Logger *zap.Logger

	// Optional UDP DNS servers (host:port) queried when re-resolving the
	// remote write host, e.g. ["1.1.1.1:53"]. The system resolver is always
	// queried as a fallback.
	DNSServers []string
	DNSTimeout time.Duration
}

// DefaultConfig returns a configuration with the interval and identity
// defaults filled in.
func DefaultConfig() Config {
	ip, _ := OutboundIPv4()
	return Config{
		Namespace:           "app",
		Subsystem:           "prod",
		ServiceName:         "service",
		RemoteWriteInterval: 15 * time.Second,
		InstanceIP:          ip,
		CustomLabels:        make(map[string]string),
	}
}

// Manager drives the sampling cadence: it invokes every registered
// Collector on a fixed interval from a single goroutine and ships the
// resulting samples to the configured remote write endpoint.
type Manager interface {
	// Start launches the periodic sampling loop. Without a remote write URL
	// it is a no-op: collectors can still be sampled via Metrics.
	Start() error

	// Stop cancels the sampling loop and waits for it to exit.
	Stop()

	// RegisterCollector adds a collector to the sampling set. Each
	// collector is invoked by the manager's single scheduler goroutine.
	RegisterCollector(collector Collector)

	// Metrics samples every registered collector once and returns the
	// combined batch.
	Metrics() []Metric

	// Flush samples and writes immediately, outside the regular cadence.
	Flush() error
}

type managerImpl struct {
	config Config
	clk    clock.Clock
	client *promwrite.Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	collectors []Collector

	// Remote write host re-resolution state, touched only by the scheduler
	// goroutine.
	targetHost  string
	resolvedIPs []string
	lastResolve time.Time
}

// NewManager creates a Manager for config.
func NewManager(config Config) (Manager, error) {
	m, err := newManager(config, clock.New())
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newManager(config Config, clk clock.Clock) (*managerImpl, error) {
	if config.ServiceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}
	if config.InstanceIP == "" {
		ip, err := OutboundIPv4()
		if err != nil {
			return nil, fmt.Errorf("detecting outbound IPv4: %w", err)
		}
		config.InstanceIP = ip
	}
	if config.Logger == nil {
		config.Logger = logger()
	}
	if config.RemoteWriteInterval <= 0 {
		config.RemoteWriteInterval = 15 * time.Second
	}
	if config.DNSTimeout <= 0 {
		config.DNSTimeout = 800 * time.Millisecond
	}

	var client *promwrite.Client
	var host string
	if config.RemoteWriteURL != "" {
		client = promwrite.NewClient(config.RemoteWriteURL)
		if u, err := url.Parse(config.RemoteWriteURL); err == nil {
			host = u.Hostname()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &managerImpl{
		config:     config,
		clk:        clk,
		client:     client,
		ctx:        ctx,
		cancel:     cancel,
		targetHost: host,
	}, nil
}

// RegisterCollector implements Manager.
func (m *managerImpl) RegisterCollector(collector Collector) {
	m.mu.Lock()
	m.collectors = append(m.collectors, collector)
	m.mu.Unlock()

	m.config.Logger.Debug("registered collector",
		zap.String("collector", collector.Name()))
}

// Start implements Manager.
func (m *managerImpl) Start() error {
	if m.client == nil {
		m.config.Logger.Warn("starting manager without remote write URL")
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := m.clk.Ticker(m.config.RemoteWriteInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := m.writeMetrics(); err != nil {
					m.config.Logger.Error("writing metrics failed", zap.Error(err))
				}
			case <-m.ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop implements Manager.
func (m *managerImpl) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Metrics implements Manager.
func (m *managerImpl) Metrics() []Metric {
	m.mu.RLock()
	collectors := make([]Collector, len(m.collectors))
	copy(collectors, m.collectors)
	m.mu.RUnlock()

	metrics := []Metric{}
	for _, c := range collectors {
		metrics = append(metrics, m.gather(c)...)
	}
	return metrics
}

// Flush implements Manager.
func (m *managerImpl) Flush() error {
	return m.writeMetrics()
}

// gather invokes one collector, containing any panic so a misbehaving
// collector cannot take down the sampling loop.
func (m *managerImpl) gather(c Collector) (metrics []Metric) {
	defer func() {
		if r := recover(); r != nil {
			m.config.Logger.Error("collector panicked",
				zap.String("collector", c.Name()),
				zap.Any("panic", r))
			metrics = nil
		}
	}()
	return c.Collect()
}

func (m *managerImpl) writeMetrics() error {
	if m.client == nil {
		return fmt.Errorf("no remote write client configured")
	}

	metrics := m.Metrics()
	if len(metrics) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(m.ctx, 15*time.Second)
	defer cancel()

	req := &promwrite.WriteRequest{TimeSeries: m.toTimeSeries(metrics)}
	if _, err := m.client.Write(ctx, req); err != nil {
		// A stale DNS answer is the common cause; re-resolve once and retry.
		if m.refreshTarget(true) {
			if _, retryErr := m.client.Write(ctx, req); retryErr != nil {
				return fmt.Errorf("writing time series after dns refresh: %w", retryErr)
			}
			return nil
		}
		return fmt.Errorf("writing time series: %w", err)
	}
	return nil
}

// toTimeSeries converts a sample batch to promwrite series with the
// manager's identity labels and the namespace_subsystem name prefix.
func (m *managerImpl) toTimeSeries(metrics []Metric) []promwrite.TimeSeries {
	prefix := fmt.Sprintf("%s_%s", m.config.Namespace, m.config.Subsystem)

	series := make([]promwrite.TimeSeries, 0, len(metrics))
	for _, metric := range metrics {
		labels := make([]promwrite.Label, 0, 4+len(m.config.CustomLabels)+len(metric.Labels))
		labels = append(labels,
			promwrite.Label{Name: "__name__", Value: fmt.Sprintf("%s_%s", prefix, metric.Name)},
			promwrite.Label{Name: "instance", Value: m.config.InstanceIP},
			promwrite.Label{Name: "_instance_", Value: m.config.InstanceIP},
			promwrite.Label{Name: "_target_", Value: m.config.ServiceName},
		)
		for k, v := range m.config.CustomLabels {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}
		for k, v := range metric.Labels {
			labels = append(labels, promwrite.Label{Name: k, Value: v})
		}

		series = append(series, promwrite.TimeSeries{
			Labels: labels,
			Sample: promwrite.Sample{
				Time:  metric.Timestamp,
				Value: metric.Value,
			},
		})
	}
	return series
}

// refreshTarget re-resolves the remote write hostname and recreates the
// client when the address set changed, forcing new connections. Returns
// whether the client was refreshed.
func (m *managerImpl) refreshTarget(force bool) bool {
	if m.targetHost == "" || net.ParseIP(m.targetHost) != nil {
		return false
	}
	if !force && m.clk.Now().Sub(m.lastResolve) < time.Minute {
		return false
	}
	m.lastResolve = m.clk.Now()

	ips, err := m.resolve(m.targetHost)
	if err != nil || len(ips) == 0 {
		m.config.Logger.Warn("dns lookup failed",
			zap.String("host", m.targetHost), zap.Error(err))
		return false
	}
	sort.Strings(ips)

	if stringSlicesEqual(ips, m.resolvedIPs) && !force {
		return false
	}
	m.resolvedIPs = ips
	m.client = promwrite.NewClient(m.config.RemoteWriteURL)
	m.config.Logger.Info("refreshed remote write client after dns update",
		zap.String("host", m.targetHost), zap.Strings("ips", ips))
	return true
}

// resolve queries the configured UDP servers and the system resolver
// concurrently and returns the first non-empty answer.
func (m *managerImpl) resolve(host string) ([]string, error) {
	ctx, cancel := context.WithTimeout(m.ctx, m.config.DNSTimeout)
	defer cancel()

	type result struct {
		ips []string
		err error
	}
	ch := make(chan result, len(m.config.DNSServers)+1)

	for _, server := range m.config.DNSServers {
		go func(server string) {
			ips, err := resolveUDP(ctx, host, server)
			ch <- result{ips, err}
		}(server)
	}
	go func() {
		netIPs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
		ips := make([]string, 0, len(netIPs))
		for _, ip := range netIPs {
			ips = append(ips, ip.String())
		}
		ch <- result{ips, err}
	}()

	var firstErr error
	for i := 0; i < len(m.config.DNSServers)+1; i++ {
		select {
		case r := <-ch:
			if r.err == nil && len(r.ips) > 0 {
				return r.ips, nil
			}
			if firstErr == nil {
				firstErr = r.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no dns result for %q", host)
	}
	return nil, firstErr
}

func resolveUDP(ctx context.Context, host, server string) ([]string, error) {
	q := new(dns.Msg)
	q.SetQuestion(dns.Fqdn(host), dns.TypeA)
	c := &dns.Client{Net: "udp"}
	r, _, err := c.ExchangeContext(ctx, q, server)
	if err != nil {
		return nil, fmt.Errorf("udp dns %s: %w", server, err)
	}
	if r == nil || r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("udp dns %s: rcode %d", server, rcodeOf(r))
	}
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}

func rcodeOf(r *dns.Msg) int {
	if r == nil {
		return -1
	}
	return r.Rcode
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// OutboundIPv4 returns the preferred outbound IPv4 address of the local
// machine.
func OutboundIPv4() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
