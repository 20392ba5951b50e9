package monitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Garrettc123/ueep-ha-system/internal/monitor"
)

func TestMonitor_Start(t *testing.T) {
	tests := []struct {
		name          string
		setupMonitor  func() *monitor.Monitor
		expectedError error
	}{
		{
			name: "success",
			setupMonitor: func() *monitor.Monitor {
				return monitor.NewMonitor(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
			},
			expectedError: nil,
		},
		{
			name: "already running",
			setupMonitor: func() *monitor.Monitor {
				m := monitor.NewMonitor(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
				require.NoError(t, m.Start(context.Background()))
				return m
			},
			expectedError: monitor.ErrMonitorAlreadyRunning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.setupMonitor()
			defer func() {
				if m.IsRunning() {
					_ = m.Stop()
				}
			}()

			err := m.Start(context.Background())
			assert.Equal(t, tt.expectedError, err)
		})
	}
}

func TestMonitor_Stop(t *testing.T) {
	m := monitor.NewMonitor(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
		return nil
	})

	assert.Equal(t, monitor.ErrMonitorNotRunning, m.Stop())

	require.NoError(t, m.Start(context.Background()))
	assert.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())

	assert.Equal(t, monitor.ErrMonitorNotRunning, m.Stop())
}

func TestMonitor_RunsImmediatelyAndOnTicks(t *testing.T) {
	var mu sync.Mutex
	sweeps := 0

	m := monitor.NewMonitor(zap.NewNop(), 30*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		sweeps++
		mu.Unlock()
		return nil
	})

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return sweeps >= 3
	}, time.Second, 10*time.Millisecond)
}

func TestMonitor_SurvivesTaskFailure(t *testing.T) {
	var mu sync.Mutex
	sweeps := 0

	m := monitor.NewMonitor(zap.NewNop(), 30*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		sweeps++
		mu.Unlock()
		return errors.New("probe failed")
	})

	require.NoError(t, m.Start(context.Background()))
	defer func() { _ = m.Stop() }()

	// The loop keeps ticking even when every sweep fails.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return sweeps >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestMonitor_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	m := monitor.NewMonitor(zap.NewNop(), 20*time.Millisecond, func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, m.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		return !m.IsRunning()
	}, time.Second, 10*time.Millisecond)
}
