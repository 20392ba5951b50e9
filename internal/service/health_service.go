package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
	"github.com/Garrettc123/ueep-ha-system/internal/metrics"
)

// Probe is a lightweight, side-effect-free connectivity check for one
// dependency.
type Probe func(ctx context.Context) error

type healthService struct {
	registry *breaker.Registry
	probes   map[string]Probe
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewHealthService creates the aggregator. Probes are keyed by the breaker
// name they run through; every probe failure is contained here, never
// propagated.
func NewHealthService(
	registry *breaker.Registry,
	probes map[string]Probe,
	m *metrics.Metrics,
	logger *zap.Logger,
) HealthService {
	return &healthService{
		registry: registry,
		probes:   probes,
		metrics:  m,
		logger:   logger,
	}
}

// Check probes every registered dependency through its breaker and composes
// the overall verdict. A dependency whose circuit is open is reported
// unhealthy without issuing a new probe, so the health check itself never
// adds load to a struggling dependency.
func (s *healthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Healthy:  true,
		Checks:   make(map[string]DependencyStatus, len(s.probes)),
		Breakers: make(map[string]string, len(s.probes)),
	}

	for _, name := range s.registry.Names() {
		probe, ok := s.probes[name]
		if !ok {
			continue
		}

		_, err := s.registry.Do(name, func() (any, error) {
			return nil, probe(ctx)
		})
		if err != nil {
			status.Checks[name] = StatusUnhealthy
			status.Healthy = false
			s.metrics.SetHealth(name, false)
			s.logger.Warn("Dependency health check failed",
				zap.String("dependency", name),
				zap.Error(err))
		} else {
			status.Checks[name] = StatusHealthy
			s.metrics.SetHealth(name, true)
		}
	}

	for name, state := range s.registry.States() {
		status.Breakers[name] = state.String()
		s.metrics.SetBreakerState(name, state)
	}

	return status
}
