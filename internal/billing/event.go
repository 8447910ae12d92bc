package billing

import (
	"encoding/json"
	"fmt"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// Event types handled by the webhook processor. Anything else is
// acknowledged without a state change.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is the provider's webhook envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a raw webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("decode event: missing type")
	}
	return &ev, nil
}

// CheckoutSession is the data object carried by checkout events.
type CheckoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Invoice is the data object carried by invoice events.
type Invoice struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// Subscription is the data object carried by subscription lifecycle
// events.
type Subscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// statusFromProvider maps the provider's subscription status vocabulary
// onto ours. Unknown statuses map to past_due rather than silently
// activating an account.
func statusFromProvider(status string) model.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return model.SubscriptionActive
	case "past_due", "unpaid", "incomplete":
		return model.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return model.SubscriptionCanceled
	default:
		return model.SubscriptionPastDue
	}
}

// planFromPrice maps a price ID to a plan name.
func planFromPrice(priceID string, prices PriceTable) string {
	switch priceID {
	case prices.Monthly:
		return model.PlanMonthly
	case prices.Yearly:
		return model.PlanYearly
	default:
		return model.PlanMonthly
	}
}

// PriceTable holds the provider price IDs the product sells.
type PriceTable struct {
	Monthly string
	Yearly  string
}

// Valid reports whether the given price ID is one we sell.
func (p PriceTable) Valid(priceID string) bool {
	return priceID != "" && (priceID == p.Monthly || priceID == p.Yearly)
}
