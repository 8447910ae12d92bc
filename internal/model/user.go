// Package model defines domain entities for the application.
package model

import "time"

// Plan names for account entitlements.
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// SubscriptionStatus tracks an owner's position in the billing lifecycle.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// IsValid checks if the status is a known value.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionNone, SubscriptionPending, SubscriptionActive,
		SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// FreeTierCarouselLimit is the number of carousels a free-tier owner may
// hold concurrently.
const FreeTierCarouselLimit = 3

// User represents an account that owns carousels and API keys.
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	Plan               string             `json:"plan"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CustomerID         string             `json:"-"` // payment provider customer
	SubscriptionID     string             `json:"-"` // payment provider subscription
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Entitled reports whether the user may exceed the free-tier quota.
func (u *User) Entitled() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
