package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestGateway_VerifyWebhookSignature(t *testing.T) {
	gateway := New("key", "secret", "whsec")

	body := `{"event":"subscription.activated"}`

	assert.True(t, gateway.VerifyWebhookSignature([]byte(body), signBody(body, "whsec")))
	assert.False(t, gateway.VerifyWebhookSignature([]byte(body), signBody(body, "wrong-secret")))
	assert.False(t, gateway.VerifyWebhookSignature([]byte(body), "garbage"))
	assert.False(t, gateway.VerifyWebhookSignature([]byte(body), ""))
}

func TestParseWebhookEvent(t *testing.T) {
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	body := `{
		"event": "subscription.activated",
		"payload": {
			"subscription": {
				"entity": {
					"id": "sub_ABC123",
					"status": "active",
					"current_end": ` + "1790726400" + `
				}
			}
		}
	}`

	event, err := ParseWebhookEvent([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "subscription.activated", event.Event)
	assert.Equal(t, "sub_ABC123", event.SubscriptionID)
	assert.Equal(t, "active", event.Status)
	require.NotNil(t, event.CurrentEnd)
	assert.Equal(t, end, *event.CurrentEnd)
}

func TestParseWebhookEvent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "nope"},
		{name: "missing event", body: `{"payload":{"subscription":{"entity":{"id":"sub_1"}}}}`},
		{name: "missing subscription id", body: `{"event":"subscription.activated"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWebhookEvent([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
