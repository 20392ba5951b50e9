package repository

import (
	"context"

	"github.com/Garrettc123/ueep-ha-system/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	// Entry returns entry repository
	Entry() EntryRepository
}

// EntryRepository interface defines keyed entry operations.
type EntryRepository interface {
	GetByKey(ctx context.Context, key string) (*models.Entry, error)
	Upsert(ctx context.Context, key, value string) error
}
