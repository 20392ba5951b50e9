// Package service provides business logic implementation for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
	"github.com/Garrettc123/ueep-ha-system/internal/cache"
	"github.com/Garrettc123/ueep-ha-system/internal/config"
	"github.com/Garrettc123/ueep-ha-system/internal/metrics"
	"github.com/Garrettc123/ueep-ha-system/internal/repository"
)

type Service struct {
	Data   DataService
	Health HealthService
}

// NewService registers one breaker per dependency in the injected registry
// and wires the data accessor and health aggregator on top of them.
// Registration failures are programmer errors and abort startup.
func NewService(
	cfg *config.Config,
	registry *breaker.Registry,
	repo repository.Repository,
	c cache.Cache,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	_, err := registry.Register(DependencyDatabase, breaker.Settings{
		FailureThreshold: cfg.Breaker.Database.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.Database.RecoveryTimeout(),
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, repository.ErrEntryNotFound)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register database breaker: %w", err)
	}

	_, err = registry.Register(DependencyCache, breaker.Settings{
		FailureThreshold: cfg.Breaker.Cache.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.Cache.RecoveryTimeout(),
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, cache.ErrMiss)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register cache breaker: %w", err)
	}

	probes := map[string]Probe{
		DependencyDatabase: func(ctx context.Context) error { return repo.Ping() },
		DependencyCache:    func(ctx context.Context) error { return c.Ping(ctx) },
	}

	return &Service{
		Data:   NewDataService(registry, repo, c, cfg.Cache.TTL(), logger),
		Health: NewHealthService(registry, probes, m, logger),
	}, nil
}
