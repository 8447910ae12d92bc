package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// ErrSessionNotFound is returned when a checkout session is absent.
var ErrSessionNotFound = errors.New("checkout session not found")

// CreateCheckoutSession records a newly opened checkout session.
func (r *Repository) CreateCheckoutSession(ctx context.Context, s *model.CheckoutSession) error {
	query := `
		INSERT INTO checkout_sessions (id, user_id, price_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.PriceID, s.Status, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

// CompleteCheckoutSession marks a session as completed.
func (r *Repository) CompleteCheckoutSession(ctx context.Context, id string, completedAt time.Time) error {
	query := `
		UPDATE checkout_sessions
		SET status = $2, completed_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, model.CheckoutCompleted, completedAt)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
