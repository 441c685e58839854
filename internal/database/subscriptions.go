package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loveaihub/loveaihub/pkg/models"
)

const subscriptionColumns = `id, user_id, razorpay_subscription_id, plan_id, status,
	       current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.RazorpaySubscriptionID, &sub.PlanID, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription stores the mirror row for a newly created Razorpay subscription
func (r *Repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusCreated
	}

	query := `
		INSERT INTO subscriptions (id, user_id, razorpay_subscription_id, plan_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		sub.ID, sub.UserID, sub.RazorpaySubscriptionID, sub.PlanID, sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetSubscriptionByRazorpayID retrieves a subscription by its provider ID
func (r *Repository) GetSubscriptionByRazorpayID(ctx context.Context, razorpayID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE razorpay_subscription_id = $1`

	sub, err := scanSubscription(r.db.Pool.QueryRow(ctx, query, razorpayID))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// GetActiveSubscriptionByUser retrieves the user's active subscription, if any
func (r *Repository) GetActiveSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`

	sub, err := scanSubscription(r.db.Pool.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return sub, nil
}

// UpdateSubscriptionStatus applies a webhook-driven status transition.
// currentEnd, when non-nil, refreshes the billing period end.
func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, razorpayID, status string, currentEnd *time.Time) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $2,
		    current_period_end = COALESCE($3, current_period_end),
		    updated_at = NOW()
		WHERE razorpay_subscription_id = $1
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.Pool.QueryRow(ctx, query, razorpayID, status, currentEnd))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription status: %w", err)
	}

	return sub, nil
}
