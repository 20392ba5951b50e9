package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the current position of a breaker's state machine.
type State int32

const (
	// StateClosed allows all calls through.
	StateClosed State = iota
	// StateOpen rejects calls without contacting the dependency.
	StateOpen
	// StateHalfOpen allows a single trial call to test recovery.
	StateHalfOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Outcome classifies a guarded call for observability hooks.
type Outcome int

const (
	// OutcomeSuccess means the operation executed and succeeded.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means the operation executed and failed.
	OutcomeFailure
	// OutcomeRejected means the breaker fast-rejected the call.
	OutcomeRejected
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the circuit is open
// and the recovery timeout has not elapsed, or because the half-open trial
// slot is already taken. The guarded operation is never invoked in either
// case, and rejections never modify breaker state.
var ErrOpen = errors.New("circuit breaker is open")

// Clock provides the current time. Injecting it keeps the recovery timeout
// logic deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Settings configures a single circuit breaker.
type Settings struct {
	// Name identifies the guarded dependency in logs and metrics.
	Name string

	// FailureThreshold is the number of executed failures that trips the
	// breaker from Closed to Open. Must be positive.
	FailureThreshold int

	// RecoveryTimeout is the minimum time the breaker stays Open before a
	// trial call is permitted.
	RecoveryTimeout time.Duration

	// Clock supplies the current time. Nil means the system clock.
	Clock Clock

	// IsFailure decides whether an executed call's error counts against the
	// breaker. Nil means any non-nil error is a failure. Domain results that
	// travel as errors (cache misses, unknown keys) should return false so
	// they do not trip the breaker of a healthy dependency.
	IsFailure func(err error) bool

	// OnStateChange is invoked on every transition. It runs while the
	// breaker's lock is held and must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker gates calls to a single dependency. All state transitions
// happen under one mutex; the guarded operation itself runs outside the lock
// so dependency I/O is never serialized.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	clock            Clock
	isFailure        func(err error) bool
	onStateChange    func(name string, from, to State)

	mu              sync.Mutex
	state           State
	failureCount    int
	lastFailureTime time.Time
	trialInFlight   bool
}

// New creates a circuit breaker from the given settings.
func New(settings Settings) (*CircuitBreaker, error) {
	if settings.FailureThreshold <= 0 {
		return nil, fmt.Errorf("breaker %q: failure threshold must be positive", settings.Name)
	}
	if settings.RecoveryTimeout <= 0 {
		return nil, fmt.Errorf("breaker %q: recovery timeout must be positive", settings.Name)
	}

	clock := settings.Clock
	if clock == nil {
		clock = systemClock{}
	}

	isFailure := settings.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		name:             settings.Name,
		failureThreshold: settings.FailureThreshold,
		recoveryTimeout:  settings.RecoveryTimeout,
		clock:            clock,
		isFailure:        isFailure,
		onStateChange:    settings.OnStateChange,
		state:            StateClosed,
	}, nil
}

// Name returns the dependency name this breaker guards.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the number of executed failures recorded since the
// breaker last entered Closed.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// Execute runs fn under the breaker's gating protocol.
//
// If the circuit is Open and the recovery timeout has not elapsed, or the
// half-open trial slot is taken, fn is not invoked and ErrOpen is returned.
// Otherwise fn runs, its result is recorded, and its error is propagated
// unchanged so callers keep full diagnostic fidelity.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	trial, err := cb.allow()
	if err != nil {
		return nil, err
	}

	result, err := fn()
	cb.record(trial, err)
	return result, err
}

// allow performs the gate check. It reports whether this call occupies the
// half-open trial slot.
func (cb *CircuitBreaker) allow() (trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		if cb.clock.Now().Sub(cb.lastFailureTime) < cb.recoveryTimeout {
			return false, fmt.Errorf("%s: %w", cb.name, ErrOpen)
		}
		cb.setState(StateHalfOpen)
		cb.trialInFlight = true
		return true, nil
	case StateHalfOpen:
		if cb.trialInFlight {
			return false, fmt.Errorf("%s: %w", cb.name, ErrOpen)
		}
		cb.trialInFlight = true
		return true, nil
	default:
		return false, nil
	}
}

// record updates breaker state after fn executed.
func (cb *CircuitBreaker) record(trial bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialInFlight = false
	}

	if err == nil || !cb.isFailure(err) {
		if cb.state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.failureCount++
	cb.lastFailureTime = cb.clock.Now()

	switch cb.state {
	case StateHalfOpen:
		// A single failed trial re-opens immediately.
		cb.setState(StateOpen)
	case StateClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.setState(StateOpen)
		}
	}
}

// setState transitions the breaker and fires the state change hook. The
// failure count resets exactly when the breaker enters Closed. Callers must
// hold cb.mu.
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	if to == StateClosed {
		cb.failureCount = 0
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}
