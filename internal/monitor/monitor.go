package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor drives the periodic health sweep so breaker and health gauges stay
// fresh even when no traffic hits the health endpoint.
type Monitor struct {
	logger    *zap.Logger
	interval  time.Duration
	taskFunc  func(context.Context) error
	stopCh    chan struct{}
	doneCh    chan struct{}
	isRunning bool
	mu        sync.RWMutex
}

// NewMonitor creates a new monitor instance.
func NewMonitor(logger *zap.Logger, interval time.Duration, taskFunc func(context.Context) error) *Monitor {
	return &Monitor{
		logger:   logger,
		interval: interval,
		taskFunc: taskFunc,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. The first sweep runs immediately so the
// gauges are populated before the first tick.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return ErrMonitorAlreadyRunning
	}

	m.isRunning = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run(ctx)

	m.logger.Info("Health monitor started", zap.Duration("interval", m.interval))
	return nil
}

// Stop halts the sweep and waits for the loop to drain.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return ErrMonitorNotRunning
	}
	m.mu.Unlock()

	close(m.stopCh)
	<-m.doneCh

	m.mu.Lock()
	m.isRunning = false
	m.mu.Unlock()

	m.logger.Info("Health monitor stopped")
	return nil
}

// IsRunning returns whether the monitor loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)
	defer func() {
		m.mu.Lock()
		m.isRunning = false
		m.mu.Unlock()
	}()

	if err := m.sweep(ctx); err != nil {
		m.logger.Warn("Initial health sweep reported failure", zap.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health monitor context canceled")
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if err := m.sweep(ctx); err != nil {
				m.logger.Warn("Health sweep reported failure", zap.Error(err))
			}
		}
	}
}

// sweep bounds one probe round to the sweep interval so a stalled dependency
// cannot back up the loop.
func (m *Monitor) sweep(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	return m.taskFunc(sweepCtx)
}
