package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/carouselcutter/carouselcutter/internal/model"
	"github.com/carouselcutter/carouselcutter/internal/repository"
)

type fakeStore struct {
	users           map[string]*model.User
	usersByCustomer map[string]*model.User

	updates         map[string]repository.SubscriptionUpdate
	customerUpdates map[string]model.SubscriptionStatus
	sessions        []*model.CheckoutSession
	completed       []string

	failUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:           make(map[string]*model.User),
		usersByCustomer: make(map[string]*model.User),
		updates:         make(map[string]repository.SubscriptionUpdate),
		customerUpdates: make(map[string]model.SubscriptionStatus),
	}
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByCustomerID(_ context.Context, customerID string) (*model.User, error) {
	u, ok := f.usersByCustomer[customerID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdateSubscription(_ context.Context, userID string, upd repository.SubscriptionUpdate) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	f.updates[userID] = upd
	return nil
}

func (f *fakeStore) UpdateSubscriptionByCustomer(_ context.Context, customerID string, status model.SubscriptionStatus) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.usersByCustomer[customerID]; !ok {
		return repository.ErrUserNotFound
	}
	f.customerUpdates[customerID] = status
	return nil
}

func (f *fakeStore) CreateCheckoutSession(_ context.Context, s *model.CheckoutSession) error {
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeStore) CompleteCheckoutSession(_ context.Context, id string, _ time.Time) error {
	f.completed = append(f.completed, id)
	return nil
}

type fakeClient struct {
	session *Session
	err     error

	gotPrice string
	gotUser  string
}

func (f *fakeClient) CreateSession(_ context.Context, priceID, userID string) (*Session, error) {
	f.gotPrice = priceID
	f.gotUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPrices() PriceTable {
	return PriceTable{Monthly: "price_monthly", Yearly: "price_yearly"}
}

func TestStartCheckout(t *testing.T) {
	t.Run("creates session and marks pending", func(t *testing.T) {
		store := newFakeStore()
		store.users["user-1"] = &model.User{ID: "user-1", SubscriptionStatus: model.SubscriptionNone}
		client := &fakeClient{session: &Session{ID: "cs_123", URL: "https://pay.example/cs_123"}}
		svc := NewService(store, client, testPrices(), testLogger())

		url, err := svc.StartCheckout(context.Background(), "user-1", "price_monthly")
		if err != nil {
			t.Fatalf("StartCheckout() error = %v", err)
		}
		if url != "https://pay.example/cs_123" {
			t.Errorf("url = %q, want redirect URL", url)
		}
		if client.gotPrice != "price_monthly" || client.gotUser != "user-1" {
			t.Errorf("client called with (%q, %q)", client.gotPrice, client.gotUser)
		}
		if len(store.sessions) != 1 {
			t.Fatalf("recorded %d sessions, want 1", len(store.sessions))
		}
		if store.sessions[0].ID != "cs_123" || store.sessions[0].Status != model.CheckoutPending {
			t.Errorf("session = %+v, want pending cs_123", store.sessions[0])
		}
		if got := store.updates["user-1"].Status; got != model.SubscriptionPending {
			t.Errorf("subscription status = %q, want pending", got)
		}
	})

	t.Run("active account keeps status while changing plans", func(t *testing.T) {
		store := newFakeStore()
		store.users["user-1"] = &model.User{ID: "user-1", SubscriptionStatus: model.SubscriptionActive}
		client := &fakeClient{session: &Session{ID: "cs_456", URL: "https://pay.example/cs_456"}}
		svc := NewService(store, client, testPrices(), testLogger())

		if _, err := svc.StartCheckout(context.Background(), "user-1", "price_yearly"); err != nil {
			t.Fatalf("StartCheckout() error = %v", err)
		}
		if _, ok := store.updates["user-1"]; ok {
			t.Error("active account was demoted to pending")
		}
	})

	t.Run("rejects unknown price", func(t *testing.T) {
		store := newFakeStore()
		store.users["user-1"] = &model.User{ID: "user-1"}
		svc := NewService(store, &fakeClient{}, testPrices(), testLogger())

		_, err := svc.StartCheckout(context.Background(), "user-1", "price_bogus")
		if !errors.Is(err, ErrUnknownPrice) {
			t.Errorf("error = %v, want ErrUnknownPrice", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := NewService(newFakeStore(), &fakeClient{}, testPrices(), testLogger())

		_, err := svc.StartCheckout(context.Background(), "ghost", "price_monthly")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		store := newFakeStore()
		store.users["user-1"] = &model.User{ID: "user-1"}
		client := &fakeClient{err: ErrUpstreamFailure}
		svc := NewService(store, client, testPrices(), testLogger())

		_, err := svc.StartCheckout(context.Background(), "user-1", "price_monthly")
		if !errors.Is(err, ErrUpstreamFailure) {
			t.Errorf("error = %v, want ErrUpstreamFailure", err)
		}
		if len(store.sessions) != 0 {
			t.Error("session recorded despite provider failure")
		}
	})
}

func makeEvent(t *testing.T, eventType string, object any) *Event {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	ev := &Event{ID: "evt_test", Type: eventType}
	ev.Data.Object = raw
	return ev
}

func TestHandleEventCheckoutCompleted(t *testing.T) {
	store := newFakeStore()
	store.users["user-1"] = &model.User{ID: "user-1", SubscriptionStatus: model.SubscriptionPending}
	svc := NewService(store, &fakeClient{}, testPrices(), testLogger())

	ev := makeEvent(t, EventCheckoutCompleted, CheckoutSession{
		ID:           "cs_123",
		Customer:     "cus_9",
		Subscription: "sub_9",
		Metadata:     map[string]string{"userId": "user-1", "priceId": "price_yearly"},
	})

	outcome, err := svc.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if outcome != OutcomeApplied {
		t.Errorf("outcome = %q, want applied", outcome)
	}

	upd, ok := store.updates["user-1"]
	if !ok {
		t.Fatal("no subscription update applied")
	}
	if upd.Status != model.SubscriptionActive {
		t.Errorf("status = %q, want active", upd.Status)
	}
	if upd.Plan != model.PlanYearly {
		t.Errorf("plan = %q, want yearly", upd.Plan)
	}
	if upd.CustomerID != "cus_9" || upd.SubscriptionID != "sub_9" {
		t.Errorf("provider ids = (%q, %q), want (cus_9, sub_9)", upd.CustomerID, upd.SubscriptionID)
	}
	if len(store.completed) != 1 || store.completed[0] != "cs_123" {
		t.Errorf("completed sessions = %v, want [cs_123]", store.completed)
	}
}

func TestHandleEventCheckoutCompletedWithoutOwner(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeClient{}, testPrices(), testLogger())

	ev := makeEvent(t, EventCheckoutCompleted, CheckoutSession{ID: "cs_123", Customer: "cus_9"})

	outcome, err := svc.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Errorf("outcome = %q, want ignored", outcome)
	}
	if len(store.updates) != 0 {
		t.Error("update applied despite missing owner metadata")
	}
}

func TestHandleEventSubscriptionLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		object    any
		want      model.SubscriptionStatus
	}{
		{
			name:      "payment succeeded reactivates",
			eventType: EventPaymentSucceeded,
			object:    Invoice{Customer: "cus_1"},
			want:      model.SubscriptionActive,
		},
		{
			name:      "subscription updated to past_due",
			eventType: EventSubscriptionUpdated,
			object:    Subscription{Customer: "cus_1", Status: "past_due"},
			want:      model.SubscriptionPastDue,
		},
		{
			name:      "subscription updated to active",
			eventType: EventSubscriptionUpdated,
			object:    Subscription{Customer: "cus_1", Status: "active"},
			want:      model.SubscriptionActive,
		},
		{
			name:      "unknown provider status treated as past_due",
			eventType: EventSubscriptionUpdated,
			object:    Subscription{Customer: "cus_1", Status: "paused"},
			want:      model.SubscriptionPastDue,
		},
		{
			name:      "subscription deleted cancels",
			eventType: EventSubscriptionDeleted,
			object:    Subscription{Customer: "cus_1", Status: "canceled"},
			want:      model.SubscriptionCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.usersByCustomer["cus_1"] = &model.User{ID: "user-1", CustomerID: "cus_1"}
			svc := NewService(store, &fakeClient{}, testPrices(), testLogger())

			outcome, err := svc.HandleEvent(context.Background(), makeEvent(t, tt.eventType, tt.object))
			if err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			if outcome != OutcomeApplied {
				t.Errorf("outcome = %q, want applied", outcome)
			}
			if got := store.customerUpdates["cus_1"]; got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleEventUnknownType(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeClient{}, testPrices(), testLogger())

	ev := &Event{ID: "evt_1", Type: "charge.refunded"}
	ev.Data.Object = json.RawMessage(`{}`)

	outcome, err := svc.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Errorf("outcome = %q, want ignored", outcome)
	}
}

func TestHandleEventUnknownCustomer(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeClient{}, testPrices(), testLogger())

	ev := makeEvent(t, EventSubscriptionDeleted, Subscription{Customer: "cus_missing"})
	outcome, err := svc.HandleEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Errorf("outcome = %q, want ignored", outcome)
	}
}
