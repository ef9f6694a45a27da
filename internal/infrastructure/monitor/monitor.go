package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Check probes one store; nil means healthy.
type Check func(ctx context.Context) error

type probe struct {
	name     string
	critical bool
	timeout  time.Duration
	check    Check
}

// Monitor periodically probes the task stores and keeps the latest Status.
type Monitor struct {
	probes []probe

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Register adds a probe. Critical probes decide IsOnline. Register before Start.
func (m *Monitor) Register(name string, critical bool, timeout time.Duration, check Check) {
	if check == nil {
		return
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	m.probes = append(m.probes, probe{name: name, critical: critical, timeout: timeout, check: check})
}

func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop ends the probe loop and waits for an in-flight probe round to finish,
// so stores can be closed afterwards.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Status{LastCheck: m.status.LastCheck, Components: make(map[string]ComponentStatus, len(m.status.Components))}
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{
		Components: make(map[string]ComponentStatus, len(m.probes)),
	}
	for _, p := range m.probes {
		status.Components[p.name] = m.run(ctx, p)
	}
	status.LastCheck = time.Now()

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Online() != status.Online() {
		m.logger.Info("task stores connectivity changed", zap.Bool("online", status.Online()))
	}
	return status
}

func (m *Monitor) run(ctx context.Context, p probe) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.check(ctx)
	result := ComponentStatus{
		Healthy:  err == nil,
		Critical: p.critical,
		Latency:  time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		m.logger.Warn("health probe failed", zap.String("component", p.name), zap.Error(err))
	}
	return result
}
