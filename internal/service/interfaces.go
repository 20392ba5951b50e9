package service

import "context"

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

// DataService reads and writes keyed values through the cache-through
// resilience pattern.
type DataService interface {
	Fetch(ctx context.Context, key string) (*FetchResult, error)
	Store(ctx context.Context, key, value string) error
}

// HealthService aggregates per-dependency health into one verdict.
type HealthService interface {
	Check(ctx context.Context) *HealthStatus
}
