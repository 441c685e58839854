package billing

import (
	"encoding/json"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// Gateway is a thin wrapper over the Razorpay SDK
type Gateway struct {
	client        *razorpay.Client
	webhookSecret string
}

// CreatedSubscription holds the fields the API layer needs from a newly
// created Razorpay subscription.
type CreatedSubscription struct {
	ID       string
	Status   string
	ShortURL string
}

// WebhookEvent is a parsed Razorpay subscription webhook
type WebhookEvent struct {
	Event          string
	SubscriptionID string
	Status         string
	CurrentEnd     *time.Time
}

// New creates a new billing gateway
func New(keyID, keySecret, webhookSecret string) *Gateway {
	return &Gateway{
		client:        razorpay.NewClient(keyID, keySecret),
		webhookSecret: webhookSecret,
	}
}

// CreateSubscription creates a Razorpay subscription for a plan.
// totalCount is the number of billing cycles.
func (g *Gateway) CreateSubscription(razorpayPlanID string, totalCount int, notes map[string]interface{}) (*CreatedSubscription, error) {
	data := map[string]interface{}{
		"plan_id":         razorpayPlanID,
		"total_count":     totalCount,
		"customer_notify": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	sub, err := g.client.Subscription.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay subscription: %w", err)
	}

	created := &CreatedSubscription{}
	if id, ok := sub["id"].(string); ok {
		created.ID = id
	}
	if status, ok := sub["status"].(string); ok {
		created.Status = status
	}
	if shortURL, ok := sub["short_url"].(string); ok {
		created.ShortURL = shortURL
	}

	if created.ID == "" {
		return nil, fmt.Errorf("razorpay subscription response missing id")
	}

	return created, nil
}

// CancelSubscription cancels a Razorpay subscription at the provider
func (g *Gateway) CancelSubscription(razorpaySubscriptionID string) error {
	_, err := g.client.Subscription.Cancel(razorpaySubscriptionID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel razorpay subscription: %w", err)
	}
	return nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body.
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}

// webhookPayload mirrors the subset of the Razorpay webhook body we consume
type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity struct {
				ID         string `json:"id"`
				Status     string `json:"status"`
				CurrentEnd int64  `json:"current_end"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// ParseWebhookEvent extracts the subscription transition from a webhook body
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook body: %w", err)
	}

	entity := payload.Payload.Subscription.Entity
	if payload.Event == "" || entity.ID == "" {
		return nil, fmt.Errorf("webhook body missing event or subscription id")
	}

	event := &WebhookEvent{
		Event:          payload.Event,
		SubscriptionID: entity.ID,
		Status:         entity.Status,
	}
	if entity.CurrentEnd > 0 {
		end := time.Unix(entity.CurrentEnd, 0).UTC()
		event.CurrentEnd = &end
	}

	return event, nil
}
