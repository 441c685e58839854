package models

import (
	"time"
)

// User represents a registered account with its subscription and usage counters
type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	DisplayName      string    `json:"display_name,omitempty" db:"display_name"`
	AvatarURL        string    `json:"avatar_url,omitempty" db:"avatar_url"`
	SubscriptionType string    `json:"subscription_type" db:"subscription_type"`
	GenerationsUsed  int       `json:"generations_used" db:"generations_used"`
	GenerationsLimit int       `json:"generations_limit" db:"generations_limit"`
	IsAdmin          bool      `json:"is_admin" db:"is_admin"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SubscriptionType constants
const (
	SubscriptionTypeFree = "free"
	SubscriptionTypePro  = "pro"
)

// FreeGenerationsLimit is the default quota for newly created free-tier users
const FreeGenerationsLimit = 50

// HasQuota reports whether the user may start another generation.
// Paid tiers are unmetered.
func (u *User) HasQuota() bool {
	if u.SubscriptionType != SubscriptionTypeFree {
		return true
	}
	return u.GenerationsUsed < u.GenerationsLimit
}
