package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/repository"
)

// Webhook processing outcomes, used for metrics and logging.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
	OutcomeError   = "error"
)

// Service errors.
var (
	ErrUnknownPrice = errors.New("unknown price")
	ErrUserNotFound = errors.New("user not found")
)

// Store is the subset of persistence the billing service needs.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*model.User, error)
	UpdateSubscription(ctx context.Context, userID string, upd repository.SubscriptionUpdate) error
	UpdateSubscriptionByCustomer(ctx context.Context, customerID string, status model.SubscriptionStatus) error
	CreateCheckoutSession(ctx context.Context, s *model.CheckoutSession) error
	CompleteCheckoutSession(ctx context.Context, id string, completedAt time.Time) error
}

// SessionCreator opens checkout sessions on the payment provider.
type SessionCreator interface {
	CreateSession(ctx context.Context, priceID, userID string) (*Session, error)
}

// Service drives checkout and applies subscription lifecycle events
// delivered over the provider webhook.
type Service struct {
	store  Store
	client SessionCreator
	prices PriceTable
	logger *slog.Logger
}

// NewService builds a billing service.
func NewService(store Store, client SessionCreator, prices PriceTable, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		prices: prices,
		logger: logger,
	}
}

// StartCheckout opens a provider checkout session for the given price and
// returns the redirect URL. The session is recorded locally, and accounts
// that are not already active are moved to pending.
func (s *Service) StartCheckout(ctx context.Context, userID, priceID string) (string, error) {
	if !s.prices.Valid(priceID) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrice, priceID)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	session, err := s.client.CreateSession(ctx, priceID, userID)
	if err != nil {
		return "", err
	}

	record := &model.CheckoutSession{
		ID:        session.ID,
		UserID:    userID,
		PriceID:   priceID,
		Status:    model.CheckoutPending,
		CreatedAt: time.Now().UTC(),
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	if err := s.store.CreateCheckoutSession(ctx, record); err != nil {
		return "", fmt.Errorf("record checkout session: %w", err)
	}

	// Active accounts keep their status while changing plans.
	if user.SubscriptionStatus != model.SubscriptionActive {
		upd := repository.SubscriptionUpdate{Status: model.SubscriptionPending}
		if err := s.store.UpdateSubscription(ctx, userID, upd); err != nil {
			return "", fmt.Errorf("mark subscription pending: %w", err)
		}
	}

	s.logger.Info("checkout session created",
		slog.String("user_id", userID),
		slog.String("session_id", record.ID),
	)
	return session.URL, nil
}

// HandleEvent applies a verified webhook event to the subscription state.
// It returns the outcome so callers can record it; unknown event types are
// acknowledged without effect.
func (s *Service) HandleEvent(ctx context.Context, ev *Event) (string, error) {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, ev)
	case EventPaymentSucceeded:
		var inv Invoice
		if err := unmarshalObject(ev, &inv); err != nil {
			return OutcomeError, err
		}
		return s.applyCustomerStatus(ctx, ev, inv.Customer, model.SubscriptionActive)
	case EventSubscriptionUpdated:
		var sub Subscription
		if err := unmarshalObject(ev, &sub); err != nil {
			return OutcomeError, err
		}
		return s.applyCustomerStatus(ctx, ev, sub.Customer, statusFromProvider(sub.Status))
	case EventSubscriptionDeleted:
		var sub Subscription
		if err := unmarshalObject(ev, &sub); err != nil {
			return OutcomeError, err
		}
		return s.applyCustomerStatus(ctx, ev, sub.Customer, model.SubscriptionCanceled)
	default:
		s.logger.Debug("unhandled webhook event", slog.String("type", ev.Type))
		return OutcomeIgnored, nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, ev *Event) (string, error) {
	var session CheckoutSession
	if err := unmarshalObject(ev, &session); err != nil {
		return OutcomeError, err
	}

	userID := session.Metadata["userId"]
	if userID == "" {
		s.logger.Warn("checkout completed without owner metadata",
			slog.String("event_id", ev.ID),
			slog.String("session_id", session.ID),
		)
		return OutcomeIgnored, nil
	}

	upd := repository.SubscriptionUpdate{
		Status:         model.SubscriptionActive,
		Plan:           planFromPrice(session.Metadata["priceId"], s.prices),
		CustomerID:     session.Customer,
		SubscriptionID: session.Subscription,
	}
	if err := s.store.UpdateSubscription(ctx, userID, upd); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("checkout completed for unknown user",
				slog.String("event_id", ev.ID),
				slog.String("user_id", userID),
			)
			return OutcomeIgnored, nil
		}
		return OutcomeError, fmt.Errorf("activate subscription: %w", err)
	}

	if session.ID != "" {
		if err := s.store.CompleteCheckoutSession(ctx, session.ID, time.Now().UTC()); err != nil &&
			!errors.Is(err, repository.ErrSessionNotFound) {
			// The subscription is already active; losing the session
			// record is not worth failing the delivery over.
			s.logger.Warn("complete checkout session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("subscription activated",
		slog.String("user_id", userID),
		slog.String("plan", upd.Plan),
	)
	return OutcomeApplied, nil
}

func (s *Service) applyCustomerStatus(ctx context.Context, ev *Event, customerID string, status model.SubscriptionStatus) (string, error) {
	if customerID == "" {
		s.logger.Warn("webhook event without customer",
			slog.String("event_id", ev.ID),
			slog.String("type", ev.Type),
		)
		return OutcomeIgnored, nil
	}

	if err := s.store.UpdateSubscriptionByCustomer(ctx, customerID, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("webhook event for unknown customer",
				slog.String("event_id", ev.ID),
				slog.String("customer_id", customerID),
			)
			return OutcomeIgnored, nil
		}
		return OutcomeError, fmt.Errorf("update subscription status: %w", err)
	}

	s.logger.Info("subscription status updated",
		slog.String("customer_id", customerID),
		slog.String("status", string(status)),
	)
	return OutcomeApplied, nil
}

func unmarshalObject(ev *Event, dst any) error {
	if len(ev.Data.Object) == 0 {
		return fmt.Errorf("event %s has no data object", ev.ID)
	}
	if err := json.Unmarshal(ev.Data.Object, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	return nil
}
