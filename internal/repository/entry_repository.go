package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Garrettc123/ueep-ha-system/internal/models"
)

type entryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &entryRepository{
		db: db,
	}
}

// GetByKey retrieves the entry stored under key.
func (r *entryRepository) GetByKey(ctx context.Context, key string) (*models.Entry, error) {
	query := `
		SELECT id, key, value, created_at, updated_at
		FROM entries
		WHERE key = $1
	`

	var entry models.Entry
	err := r.db.GetContext(ctx, &entry, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, key)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &entry, nil
}

// Upsert stores value under key, replacing any previous value.
func (r *entryRepository) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO entries (key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	return nil
}
