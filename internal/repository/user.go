package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carouselcutter/carouselcutter/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, plan, subscription_status, customer_id, subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Plan,
		string(user.SubscriptionStatus),
		user.CustomerID,
		user.SubscriptionID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := userSelect + ` WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := userSelect + ` WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByCustomerID retrieves a user by their payment-provider customer
// ID. Used when webhook events carry only the customer reference.
func (r *Repository) GetUserByCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	query := userSelect + ` WHERE customer_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by customer: %w", err)
	}
	return user, nil
}

// SubscriptionUpdate carries subscription fields to apply to a user.
// Empty strings leave the stored value untouched; Status always applies.
type SubscriptionUpdate struct {
	Status         model.SubscriptionStatus
	Plan           string
	CustomerID     string
	SubscriptionID string
}

// UpdateSubscription applies a subscription state change to a user.
func (r *Repository) UpdateSubscription(ctx context.Context, userID string, upd SubscriptionUpdate) error {
	query := `
		UPDATE users
		SET subscription_status = $2,
		    plan = COALESCE(NULLIF($3, ''), plan),
		    customer_id = COALESCE(NULLIF($4, ''), customer_id),
		    subscription_id = COALESCE(NULLIF($5, ''), subscription_id),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		userID,
		string(upd.Status),
		upd.Plan,
		upd.CustomerID,
		upd.SubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateSubscriptionByCustomer applies a status change addressed by the
// payment-provider customer ID.
func (r *Repository) UpdateSubscriptionByCustomer(ctx context.Context, customerID string, status model.SubscriptionStatus) error {
	query := `
		UPDATE users
		SET subscription_status = $2, updated_at = NOW()
		WHERE customer_id = $1
	`

	result, err := r.pool.Exec(ctx, query, customerID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update subscription by customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const userSelect = `
	SELECT id, email, plan, subscription_status, customer_id, subscription_id, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user   model.User
		status string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Plan,
		&status,
		&user.CustomerID,
		&user.SubscriptionID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.SubscriptionStatus = model.SubscriptionStatus(status)
	return &user, nil
}
