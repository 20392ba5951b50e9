package breaker_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(t *testing.T, clock breaker.Clock) *breaker.CircuitBreaker {
	t.Helper()

	cb, err := breaker.New(breaker.Settings{
		Name:             "test",
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		Clock:            clock,
	})
	require.NoError(t, err)
	return cb
}

func failingCall(calls *int, err error) func() (any, error) {
	return func() (any, error) {
		*calls++
		return nil, err
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings breaker.Settings
	}{
		{
			name: "zero failure threshold",
			settings: breaker.Settings{
				Name:            "db",
				RecoveryTimeout: time.Second,
			},
		},
		{
			name: "negative failure threshold",
			settings: breaker.Settings{
				Name:             "db",
				FailureThreshold: -1,
				RecoveryTimeout:  time.Second,
			},
		},
		{
			name: "zero recovery timeout",
			settings: breaker.Settings{
				Name:             "db",
				FailureThreshold: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := breaker.New(tt.settings)
			require.Error(t, err)
			assert.Nil(t, cb)
		})
	}
}

func TestCircuitBreaker_Execute_Success(t *testing.T) {
	cb := newTestBreaker(t, newFakeClock())

	result, err := cb.Execute(func() (any, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, breaker.StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	cb := newTestBreaker(t, newFakeClock())
	boom := errors.New("boom")

	// Two failures: one short of the threshold, still closed.
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (any, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, breaker.StateClosed, cb.State())
	assert.Equal(t, 2, cb.FailureCount())

	// The third failure is the trip point (boundary is >=, not >).
	_, err := cb.Execute(func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, breaker.StateOpen, cb.State())
}

func TestCircuitBreaker_PropagatesOriginalError(t *testing.T) {
	cb := newTestBreaker(t, newFakeClock())
	cause := errors.New("connection refused")

	_, err := cb.Execute(func() (any, error) { return nil, cause })

	// The breaker never swallows or rewraps executed failures.
	assert.Equal(t, cause, err)
}

func TestCircuitBreaker_FastRejectWhileOpen(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(failingCall(&calls, boom))
	}
	require.Equal(t, breaker.StateOpen, cb.State())
	require.Equal(t, 3, calls)

	// Before the recovery timeout every call is rejected without invoking
	// the operation, and rejections never touch breaker state.
	clock.Advance(10 * time.Second)
	for i := 0; i < 5; i++ {
		_, err := cb.Execute(failingCall(&calls, boom))
		require.ErrorIs(t, err, breaker.ErrOpen)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, cb.FailureCount())
	assert.Equal(t, breaker.StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenTrialSucceeds(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	calls := 0
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(failingCall(&calls, boom))
	}
	require.Equal(t, breaker.StateOpen, cb.State())

	// Once the recovery timeout elapses the next call is allowed through as
	// the half-open trial; success closes the breaker and resets the count.
	clock.Advance(31 * time.Second)
	result, err := cb.Execute(func() (any, error) {
		calls++
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 4, calls)
	assert.Equal(t, breaker.StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreaker_HalfOpenTrialFails(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, boom })
	}
	require.Equal(t, breaker.StateOpen, cb.State())

	// A single failed trial re-opens immediately.
	clock.Advance(31 * time.Second)
	_, err := cb.Execute(func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, breaker.StateOpen, cb.State())

	// The cooldown restarts from the failed trial.
	clock.Advance(10 * time.Second)
	_, err = cb.Execute(func() (any, error) { return "ok", nil })
	assert.ErrorIs(t, err, breaker.ErrOpen)
}

func TestCircuitBreaker_SingleTrialSlot(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, boom })
	}
	clock.Advance(31 * time.Second)

	trialStarted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := cb.Execute(func() (any, error) {
			close(trialStarted)
			<-release
			return "ok", nil
		})
		done <- err
	}()

	// While the trial is unresolved, a second caller must not be granted
	// passage.
	<-trialStarted
	require.Equal(t, breaker.StateHalfOpen, cb.State())

	secondCalls := 0
	_, err := cb.Execute(failingCall(&secondCalls, boom))
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 0, secondCalls)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, breaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ConcurrentTrialCallers(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, boom })
	}
	clock.Advance(31 * time.Second)

	const workers = 16
	var (
		invoked  int
		invokeMu sync.Mutex
		rejected int
		rejectMu sync.Mutex
		start    = make(chan struct{})
		wg       sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := cb.Execute(func() (any, error) {
				invokeMu.Lock()
				invoked++
				invokeMu.Unlock()
				time.Sleep(50 * time.Millisecond)
				return "ok", nil
			})
			if errors.Is(err, breaker.ErrOpen) {
				rejectMu.Lock()
				rejected++
				rejectMu.Unlock()
			}
		}()
	}

	close(start)
	wg.Wait()

	// Exactly one goroutine may occupy the trial slot before it resolves;
	// with a sleeping trial the rest must be rejected. Once the trial closes
	// the breaker, stragglers may pass through Closed, so invoked can exceed
	// one but rejected+invoked always accounts for every worker.
	assert.GreaterOrEqual(t, rejected, 1)
	assert.GreaterOrEqual(t, invoked, 1)
	assert.Equal(t, workers, rejected+invoked)
	assert.Equal(t, breaker.StateClosed, cb.State())
}

func TestCircuitBreaker_RecoveryScenario(t *testing.T) {
	// failureThreshold=3, recoveryTimeout=30s: three failures open the
	// breaker, a call at t+10s is rejected without executing, a call at
	// t+31s runs as the trial and closes the breaker on success.
	clock := newFakeClock()
	cb := newTestBreaker(t, clock)
	boom := errors.New("boom")

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(failingCall(&calls, boom))
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, breaker.StateOpen, cb.State())

	clock.Advance(10 * time.Second)
	_, err := cb.Execute(failingCall(&calls, boom))
	require.ErrorIs(t, err, breaker.ErrOpen)
	require.Equal(t, 3, calls)

	clock.Advance(21 * time.Second)
	_, err = cb.Execute(func() (any, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, breaker.StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())
}

func TestCircuitBreaker_IsFailureClassifier(t *testing.T) {
	notFound := errors.New("not found")
	cb, err := breaker.New(breaker.Settings{
		Name:             "store",
		FailureThreshold: 1,
		RecoveryTimeout:  30 * time.Second,
		Clock:            newFakeClock(),
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, notFound)
		},
	})
	require.NoError(t, err)

	// Domain results travel as errors but must not trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (any, error) { return nil, notFound })
		require.ErrorIs(t, err, notFound)
	}
	assert.Equal(t, breaker.StateClosed, cb.State())
	assert.Equal(t, 0, cb.FailureCount())

	_, err = cb.Execute(func() (any, error) { return nil, errors.New("timeout") })
	require.Error(t, err)
	assert.Equal(t, breaker.StateOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := newFakeClock()

	type transition struct {
		from, to breaker.State
	}
	var transitions []transition

	cb, err := breaker.New(breaker.Settings{
		Name:             "db",
		FailureThreshold: 1,
		RecoveryTimeout:  30 * time.Second,
		Clock:            clock,
		OnStateChange: func(name string, from, to breaker.State) {
			assert.Equal(t, "db", name)
			transitions = append(transitions, transition{from, to})
		},
	})
	require.NoError(t, err)

	_, _ = cb.Execute(func() (any, error) { return nil, errors.New("boom") })
	clock.Advance(31 * time.Second)
	_, _ = cb.Execute(func() (any, error) { return nil, nil })

	assert.Equal(t, []transition{
		{breaker.StateClosed, breaker.StateOpen},
		{breaker.StateOpen, breaker.StateHalfOpen},
		{breaker.StateHalfOpen, breaker.StateClosed},
	}, transitions)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", breaker.StateClosed.String())
	assert.Equal(t, "open", breaker.StateOpen.String())
	assert.Equal(t, "half-open", breaker.StateHalfOpen.String())
	assert.Equal(t, "unknown", breaker.State(42).String())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", breaker.OutcomeSuccess.String())
	assert.Equal(t, "failure", breaker.OutcomeFailure.String())
	assert.Equal(t, "rejected", breaker.OutcomeRejected.String())
}
