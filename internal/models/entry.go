// Package models defines data structures used throughout the application.
package models

import "time"

// Entry is a keyed value stored in the database and mirrored in the cache.
type Entry struct {
	ID        int64     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
