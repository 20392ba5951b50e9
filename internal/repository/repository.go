package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrEntryNotFound is returned when no entry exists for the requested key.
// It is a domain result, not a dependency failure, and must not count
// against the database circuit breaker.
var ErrEntryNotFound = errors.New("entry not found")

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db    *sqlx.DB
	entry EntryRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:    db,
		entry: NewEntryRepository(db),
	}
}

// Entry returns the entry repository.
func (r *repositoryImpl) Entry() EntryRepository {
	return r.entry
}

// Ping checks if the database connection is healthy. It is the lightweight
// probe the health aggregator runs through the database breaker.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}
