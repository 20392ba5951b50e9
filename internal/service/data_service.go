package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
	"github.com/Garrettc123/ueep-ha-system/internal/cache"
	"github.com/Garrettc123/ueep-ha-system/internal/models"
	"github.com/Garrettc123/ueep-ha-system/internal/repository"
)

type dataService struct {
	registry *breaker.Registry
	repo     repository.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDataService creates the resilient data accessor. It is stateless beyond
// the two breakers it delegates to.
func NewDataService(
	registry *breaker.Registry,
	repo repository.Repository,
	c cache.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) DataService {
	return &dataService{
		registry: registry,
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Fetch reads a value cache-first, falling back to the store. Cache-path
// failures are recovered locally; only an exhausted store path surfaces
// ErrDependencyUnavailable to the caller. Replaying with the same key is
// safe.
func (s *dataService) Fetch(ctx context.Context, key string) (*FetchResult, error) {
	value, err := breaker.Do(s.registry, DependencyCache, func() (string, error) {
		return s.cache.Get(ctx, key)
	})
	if err == nil {
		return &FetchResult{Value: value, Source: SourceCache}, nil
	}

	if errors.Is(err, cache.ErrMiss) {
		s.logger.Debug("Cache miss", zap.String("key", key))
	} else {
		s.logger.Warn("Cache read failed, falling back to store",
			zap.String("key", key),
			zap.Error(err))
	}

	entry, err := breaker.Do(s.registry, DependencyDatabase, func() (*models.Entry, error) {
		return s.repo.Entry().GetByKey(ctx, key)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, err
		}

		s.logger.Error("Store read failed",
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("fetch %q: %w", key, ErrDependencyUnavailable)
	}

	s.repopulateCache(ctx, key, entry.Value)

	return &FetchResult{Value: entry.Value, Source: SourceStore}, nil
}

// Store writes a value to the store and repopulates the cache best-effort.
func (s *dataService) Store(ctx context.Context, key, value string) error {
	_, err := s.registry.Do(DependencyDatabase, func() (any, error) {
		return nil, s.repo.Entry().Upsert(ctx, key, value)
	})
	if err != nil {
		s.logger.Error("Store write failed",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("store %q: %w", key, ErrDependencyUnavailable)
	}

	s.repopulateCache(ctx, key, value)

	return nil
}

// repopulateCache is best-effort: a failure is logged and never affects the
// caller's result.
func (s *dataService) repopulateCache(ctx context.Context, key, value string) {
	_, err := s.registry.Do(DependencyCache, func() (any, error) {
		return nil, s.cache.Set(ctx, key, value, s.cacheTTL)
	})
	if err != nil {
		s.logger.Warn("Cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}
