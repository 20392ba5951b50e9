// Package breaker implements the circuit breaker pattern guarding calls to
// downstream dependencies.
//
// Each breaker is a small state machine with three states:
//
//   - Closed: calls pass through, executed failures are counted
//   - Open: calls are rejected immediately with ErrOpen
//   - HalfOpen: exactly one trial call is allowed to test recovery
//
// Breakers are grouped in a Registry keyed by dependency name. Code guards a
// call by name:
//
//	reg := breaker.NewRegistry()
//	_, _ = reg.Register("database", breaker.Settings{
//		FailureThreshold: 5,
//		RecoveryTimeout:  30 * time.Second,
//	})
//
//	value, err := breaker.Do(reg, "database", func() (string, error) {
//		return readValue(ctx, key)
//	})
//	if errors.Is(err, breaker.ErrOpen) {
//		// fast-rejected, the dependency was not contacted
//	}
package breaker
