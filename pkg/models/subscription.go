package models

import (
	"time"
)

// Subscription mirrors a Razorpay subscription object
type Subscription struct {
	ID                     string     `json:"id" db:"id"`
	UserID                 string     `json:"user_id" db:"user_id"`
	RazorpaySubscriptionID string     `json:"razorpay_subscription_id" db:"razorpay_subscription_id"`
	PlanID                 string     `json:"plan_id" db:"plan_id"`
	Status                 string     `json:"status" db:"status"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty" db:"current_period_end"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// SubscriptionStatus constants, following Razorpay's lifecycle
const (
	SubscriptionStatusCreated   = "created"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusCompleted = "completed"
	SubscriptionStatusHalted    = "halted"
)

// Plan describes a purchasable subscription tier
type Plan struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Price            int64  `json:"price"` // smallest currency unit
	Currency         string `json:"currency"`
	GenerationsLimit int    `json:"generations_limit"` // 0 means unmetered
	RazorpayPlanID   string `json:"razorpay_plan_id"`
}
