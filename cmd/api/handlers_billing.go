package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loveaihub/loveaihub/internal/billing"
	"github.com/loveaihub/loveaihub/internal/database"
	"github.com/loveaihub/loveaihub/internal/logging"
	"github.com/loveaihub/loveaihub/internal/middleware"
	"github.com/loveaihub/loveaihub/pkg/models"
)

// plans is the purchasable tier catalog. Prices are in paise.
var plans = []models.Plan{
	{
		ID:             "pro-monthly",
		Name:           "Pro Monthly",
		Description:    "Unlimited generations, premium models",
		Price:          99900,
		Currency:       "INR",
		RazorpayPlanID: "plan_loveaihub_pro_monthly",
	},
	{
		ID:             "pro-yearly",
		Name:           "Pro Yearly",
		Description:    "Unlimited generations, premium models, two months free",
		Price:          999000,
		Currency:       "INR",
		RazorpayPlanID: "plan_loveaihub_pro_yearly",
	},
}

func planByID(id string) *models.Plan {
	for i := range plans {
		if plans[i].ID == id {
			return &plans[i]
		}
	}
	return nil
}

// listPlans returns the purchasable tiers
func (api *API) listPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// subscribe creates a Razorpay subscription and its mirror row
func (api *API) subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		PlanID string `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}

	plan := planByID(req.PlanID)
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown plan"})
		return
	}

	ctx := c.Request.Context()
	if existing, err := api.repo.GetActiveSubscriptionByUser(ctx, userID); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An active subscription already exists"})
		return
	}

	created, err := api.billing.CreateSubscription(plan.RazorpayPlanID, 12, map[string]interface{}{
		"user_id": userID,
		"plan_id": plan.ID,
	})
	if err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to create razorpay subscription", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create subscription"})
		return
	}

	sub := &models.Subscription{
		UserID:                 userID,
		RazorpaySubscriptionID: created.ID,
		PlanID:                 plan.ID,
		Status:                 created.Status,
	}
	if err := api.repo.CreateSubscription(ctx, sub); err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to store subscription", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"subscription": sub,
		"payment_url":  created.ShortURL,
	})
}

// getSubscription returns the caller's active subscription
func (api *API) getSubscription(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sub, err := api.repo.GetActiveSubscriptionByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		api.log.WithUserID(userID).ErrorWithErr("failed to get subscription", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// cancelSubscription cancels the caller's active subscription at the provider.
// The tier downgrade happens when the cancellation webhook lands.
func (api *API) cancelSubscription(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	ctx := c.Request.Context()
	sub, err := api.repo.GetActiveSubscriptionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		api.log.WithUserID(userID).ErrorWithErr("failed to get subscription", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	if err := api.billing.CancelSubscription(sub.RazorpaySubscriptionID); err != nil {
		api.log.WithUserID(userID).ErrorWithErr("failed to cancel razorpay subscription", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cancellation requested"})
}

// billingWebhook processes Razorpay subscription lifecycle events.
// Requests failing signature verification are rejected before any parsing.
func (api *API) billingWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if !api.billing.VerifyWebhookSignature(body, c.GetHeader("X-Razorpay-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	event, err := billing.ParseWebhookEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook body"})
		return
	}

	ctx := c.Request.Context()
	log := api.log.WithField("razorpay_subscription_id", event.SubscriptionID)

	switch event.Event {
	case "subscription.activated", "subscription.resumed":
		sub, err := api.repo.UpdateSubscriptionStatus(ctx, event.SubscriptionID, models.SubscriptionStatusActive, event.CurrentEnd)
		if err != nil {
			api.webhookUpdateError(c, log, err)
			return
		}
		if err := api.repo.SetSubscriptionTier(ctx, sub.UserID, models.SubscriptionTypePro, proGenerationsLimit(sub.PlanID)); err != nil {
			log.ErrorWithErr("failed to upgrade user tier", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
			return
		}

	case "subscription.charged":
		if _, err := api.repo.UpdateSubscriptionStatus(ctx, event.SubscriptionID, models.SubscriptionStatusActive, event.CurrentEnd); err != nil {
			api.webhookUpdateError(c, log, err)
			return
		}

	case "subscription.cancelled", "subscription.completed":
		status := models.SubscriptionStatusCancelled
		if event.Event == "subscription.completed" {
			status = models.SubscriptionStatusCompleted
		}
		sub, err := api.repo.UpdateSubscriptionStatus(ctx, event.SubscriptionID, status, event.CurrentEnd)
		if err != nil {
			api.webhookUpdateError(c, log, err)
			return
		}
		if err := api.repo.SetSubscriptionTier(ctx, sub.UserID, models.SubscriptionTypeFree, models.FreeGenerationsLimit); err != nil {
			log.ErrorWithErr("failed to downgrade user tier", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
			return
		}

	case "subscription.halted":
		if _, err := api.repo.UpdateSubscriptionStatus(ctx, event.SubscriptionID, models.SubscriptionStatusHalted, event.CurrentEnd); err != nil {
			api.webhookUpdateError(c, log, err)
			return
		}

	default:
		// Unhandled event types are acknowledged so Razorpay stops retrying
		log.WithField("event", event.Event).Info("ignoring webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (api *API) webhookUpdateError(c *gin.Context, log *logging.Logger, err error) {
	if errors.Is(err, database.ErrNotFound) {
		// Unknown subscription; acknowledge so the event is not retried forever
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	log.ErrorWithErr("failed to update subscription", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
}

// proGenerationsLimit maps a plan to the quota limit applied on upgrade.
// Pro plans are unmetered, so the stored limit is informational.
func proGenerationsLimit(planID string) int {
	if plan := planByID(planID); plan != nil && plan.GenerationsLimit > 0 {
		return plan.GenerationsLimit
	}
	return 0
}
