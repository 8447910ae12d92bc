package model

import "time"

// Checkout session statuses.
const (
	CheckoutPending   = "pending"
	CheckoutCompleted = "completed"
)

// CheckoutSession records a checkout session opened on the payment
// provider, so webhook completions can be tied back to the owner.
type CheckoutSession struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	PriceID     string     `json:"price_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
