package database

import (
	"context"
	"errors"
)

// Sentinel errors returned by repository methods
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrQuotaExceeded   = errors.New("generation quota exceeded")
	ErrAlreadyTerminal = errors.New("generation already in a terminal state")
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks the underlying connection
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}
