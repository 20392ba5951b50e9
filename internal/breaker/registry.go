package breaker

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrDuplicateBreaker is returned when registering a dependency name twice.
	ErrDuplicateBreaker = errors.New("breaker already registered")
	// ErrUnknownBreaker is returned when looking up an unregistered dependency.
	ErrUnknownBreaker = errors.New("breaker not registered")
)

// Registry owns one circuit breaker per named dependency. It is populated at
// startup and holds no global state; components receive it explicitly.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker

	onStateChange func(name string, from, to State)
	onOutcome     func(name string, outcome Outcome)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOnStateChange installs a hook fired on every state transition of every
// registered breaker, in addition to any per-breaker hook.
func WithOnStateChange(fn func(name string, from, to State)) RegistryOption {
	return func(r *Registry) { r.onStateChange = fn }
}

// WithOnOutcome installs a hook fired after every guarded call made through
// Do, tagged success, failure or rejected.
func WithOnOutcome(fn func(name string, outcome Outcome)) RegistryOption {
	return func(r *Registry) { r.onOutcome = fn }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		breakers: make(map[string]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates and stores a breaker for the named dependency. The name
// in settings is overridden by the registration name. Registering the same
// name twice is a programmer error and fails with ErrDuplicateBreaker.
func (r *Registry) Register(name string, settings Settings) (*CircuitBreaker, error) {
	settings.Name = name
	settings.OnStateChange = r.composeStateChange(settings.OnStateChange)

	cb, err := New(settings)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.breakers[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateBreaker, name)
	}

	r.breakers[name] = cb
	return cb, nil
}

// Get returns the breaker for the named dependency.
func (r *Registry) Get(name string) (*CircuitBreaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cb, exists := r.breakers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBreaker, name)
	}
	return cb, nil
}

// Names returns the registered dependency names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// States returns a snapshot of every breaker's current state.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State()
	}
	return states
}

// Do runs fn guarded by the named dependency's breaker and reports the
// outcome to the registry hook. An unknown name is a programmer error and is
// returned without touching any breaker.
func (r *Registry) Do(name string, fn func() (any, error)) (any, error) {
	cb, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	result, err := cb.Execute(fn)
	r.reportOutcome(name, cb, err)
	return result, err
}

// Do runs fn guarded by the named breaker in reg, preserving fn's result
// type.
func Do[T any](reg *Registry, name string, fn func() (T, error)) (T, error) {
	result, err := reg.Do(name, func() (any, error) {
		return fn()
	})
	if result == nil {
		var zero T
		return zero, err
	}
	return result.(T), err
}

func (r *Registry) reportOutcome(name string, cb *CircuitBreaker, err error) {
	if r.onOutcome == nil {
		return
	}

	switch {
	case err == nil:
		r.onOutcome(name, OutcomeSuccess)
	case errors.Is(err, ErrOpen):
		r.onOutcome(name, OutcomeRejected)
	case cb.isFailure(err):
		r.onOutcome(name, OutcomeFailure)
	default:
		// Executed calls whose error is a domain result, not a dependency
		// failure.
		r.onOutcome(name, OutcomeSuccess)
	}
}

func (r *Registry) composeStateChange(own func(name string, from, to State)) func(name string, from, to State) {
	if r.onStateChange == nil {
		return own
	}
	if own == nil {
		return r.onStateChange
	}
	return func(name string, from, to State) {
		own(name, from, to)
		r.onStateChange(name, from, to)
	}
}
