package service

// Dependency names the breakers are registered under.
const (
	DependencyDatabase = "database"
	DependencyCache    = "cache"
)

// DependencyStatus is the per-dependency health verdict.
type DependencyStatus string

const (
	StatusHealthy   DependencyStatus = "healthy"
	StatusUnhealthy DependencyStatus = "unhealthy"
)

// HealthStatus is the verdict computed per health-check invocation. It is
// never persisted.
type HealthStatus struct {
	// Healthy is the AND of every dependency status.
	Healthy bool `json:"healthy"`
	// Checks maps dependency name to its status.
	Checks map[string]DependencyStatus `json:"checks"`
	// Breakers maps dependency name to its breaker state.
	Breakers map[string]string `json:"breakers"`
}

// Source tags where a fetched value came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

// FetchResult is the outcome of a successful data fetch.
type FetchResult struct {
	Value  string `json:"value"`
	Source Source `json:"source"`
}
