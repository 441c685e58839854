package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/loveaihub/loveaihub/pkg/models"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = `id, email, password_hash, display_name, avatar_url, subscription_type,
	       generations_used, generations_limit, is_admin, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.AvatarURL,
		&user.SubscriptionType, &user.GenerationsUsed, &user.GenerationsLimit,
		&user.IsAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user record
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.SubscriptionType == "" {
		user.SubscriptionType = models.SubscriptionTypeFree
	}
	if user.GenerationsLimit == 0 {
		user.GenerationsLimit = models.FreeGenerationsLimit
	}

	query := `
		INSERT INTO users (id, email, password_hash, display_name, avatar_url,
		                   subscription_type, generations_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.DisplayName, user.AvatarURL,
		user.SubscriptionType, user.GenerationsLimit,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.IsActive = true
	return nil
}

// UpsertUserByEmail creates the user on first sign-in or refreshes the
// profile fields of an existing one. Used by the OAuth callback.
func (r *Repository) UpsertUserByEmail(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.GenerationsLimit == 0 {
		user.GenerationsLimit = models.FreeGenerationsLimit
	}

	query := `
		INSERT INTO users (id, email, display_name, avatar_url, generations_limit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = NOW()
		RETURNING ` + userColumns

	updated, err := scanUser(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.DisplayName, user.AvatarURL, user.GenerationsLimit,
	))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	*user = *updated
	return nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ConsumeQuota atomically spends one generation unit for free-tier users.
// The condition and the increment run in a single statement so concurrent
// requests cannot race past the limit. Returns ErrQuotaExceeded when the
// free-tier limit is already reached.
func (r *Repository) ConsumeQuota(ctx context.Context, userID string) (*models.User, error) {
	query := `
		UPDATE users
		SET generations_used = generations_used + 1, updated_at = NOW()
		WHERE id = $1
		  AND is_active
		  AND (subscription_type <> 'free' OR generations_used < generations_limit)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		// Distinguish a missing user from an exhausted quota
		if _, getErr := r.GetUser(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrQuotaExceeded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume quota: %w", err)
	}

	return user, nil
}

// RefundQuota returns one generation unit after a failed provider call
func (r *Repository) RefundQuota(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET generations_used = GREATEST(generations_used - 1, 0), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to refund quota: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubscriptionTier switches a user between tiers and adjusts the quota limit
func (r *Repository) SetSubscriptionTier(ctx context.Context, userID, tier string, generationsLimit int) error {
	query := `
		UPDATE users
		SET subscription_type = $2, generations_limit = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, tier, generationsLimit)
	if err != nil {
		return fmt.Errorf("failed to set subscription tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserFlags applies admin changes to a user account
func (r *Repository) UpdateUserFlags(ctx context.Context, userID string, isActive, isAdmin bool, generationsLimit int) error {
	query := `
		UPDATE users
		SET is_active = $2, is_admin = $3, generations_limit = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, isActive, isAdmin, generationsLimit)
	if err != nil {
		return fmt.Errorf("failed to update user flags: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers retrieves users with pagination, newest first
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// CountUsers returns the total number of users
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
