package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loveaihub/loveaihub/pkg/models"
)

const generationColumns = `id, user_id, type, model, prompt, metadata, status, result,
	       completed_at, created_at, updated_at`

func scanGeneration(row pgx.Row) (*models.Generation, error) {
	var gen models.Generation
	err := row.Scan(
		&gen.ID, &gen.UserID, &gen.Type, &gen.Model, &gen.Prompt, &gen.Metadata,
		&gen.Status, &gen.Result, &gen.CompletedAt, &gen.CreatedAt, &gen.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// CreateGeneration inserts a new pending generation record
func (r *Repository) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	if gen.ID == "" {
		gen.ID = uuid.New().String()
	}
	if gen.Status == "" {
		gen.Status = models.GenerationStatusPending
	}

	query := `
		INSERT INTO generations (id, user_id, type, model, prompt, metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		gen.ID, gen.UserID, gen.Type, gen.Model, gen.Prompt, gen.Metadata, gen.Status,
	).Scan(&gen.CreatedAt, &gen.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

// GetGeneration retrieves a generation by ID
func (r *Repository) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`

	gen, err := scanGeneration(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}

	return gen, nil
}

// CompleteGeneration transitions a pending generation to its terminal state.
// A row already in a terminal state is left untouched.
func (r *Repository) CompleteGeneration(ctx context.Context, id, status string, result models.Document) (*models.Generation, error) {
	if !models.IsTerminal(status) {
		return nil, fmt.Errorf("status %q is not terminal", status)
	}

	query := `
		UPDATE generations
		SET status = $2, result = $3, completed_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + generationColumns

	now := time.Now().UTC()
	gen, err := scanGeneration(r.db.Pool.QueryRow(ctx, query, id, status, result, now))
	if err == pgx.ErrNoRows {
		if _, getErr := r.GetGeneration(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyTerminal
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete generation: %w", err)
	}

	return gen, nil
}

// SetGenerationStoredImages records archived image filenames in the
// generation metadata. Called by the archive worker.
func (r *Repository) SetGenerationStoredImages(ctx context.Context, id string, filenames []string) error {
	encoded, err := json.Marshal(filenames)
	if err != nil {
		return fmt.Errorf("failed to encode filenames: %w", err)
	}

	query := `
		UPDATE generations
		SET metadata = metadata || jsonb_build_object('stored_images', $2::jsonb),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to set stored images: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGenerationsByUser retrieves a user's generations with pagination, newest first
func (r *Repository) ListGenerationsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var gens []*models.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, gen)
	}

	return gens, rows.Err()
}

// GenerationStats aggregates generation counts for the admin dashboard
type GenerationStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}

// GetGenerationStats returns aggregate generation counts
func (r *Repository) GetGenerationStats(ctx context.Context) (*GenerationStats, error) {
	stats := &GenerationStats{
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT status, type, COUNT(*) FROM generations GROUP BY status, type`)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, genType string
		var count int64
		if err := rows.Scan(&status, &genType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan generation stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByType[genType] += count
	}

	return stats, rows.Err()
}
