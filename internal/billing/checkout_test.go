package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientCreateSession(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path = %q, want /v1/checkout/sessions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test_abc" {
			t.Errorf("Authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = make(map[string]string)
		for key := range r.PostForm {
			gotForm[key] = r.PostFormValue(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_1","url":"https://pay.example/cs_test_1"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		APIBase:    srv.URL,
		SecretKey:  "sk_test_abc",
		SuccessURL: "https://app.example/billing/success",
		CancelURL:  "https://app.example/billing/cancel",
	})

	session, err := client.CreateSession(context.Background(), "price_monthly", "user-1")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID != "cs_test_1" || session.URL != "https://pay.example/cs_test_1" {
		t.Errorf("session = %+v", session)
	}

	want := map[string]string{
		"mode":                    "subscription",
		"line_items[0][price]":    "price_monthly",
		"line_items[0][quantity]": "1",
		"success_url":             "https://app.example/billing/success",
		"cancel_url":              "https://app.example/billing/cancel",
		"metadata[userId]":        "user-1",
		"metadata[priceId]":       "price_monthly",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%q] = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestClientCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "provider 4xx", status: http.StatusBadRequest, body: `{"error":{"message":"no such price"}}`},
		{name: "provider 5xx", status: http.StatusBadGateway, body: ``},
		{name: "missing redirect URL", status: http.StatusOK, body: `{"id":"cs_1"}`},
		{name: "invalid JSON", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(ClientConfig{APIBase: srv.URL, SecretKey: "sk"})
			_, err := client.CreateSession(context.Background(), "price_monthly", "user-1")
			if !errors.Is(err, ErrUpstreamFailure) {
				t.Errorf("error = %v, want ErrUpstreamFailure", err)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`))
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != EventCheckoutCompleted {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Data.Object) == 0 {
		t.Error("data object not captured")
	}

	if _, err := ParseEvent([]byte(`{`)); err == nil {
		t.Error("ParseEvent() accepted malformed JSON")
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_2"}`)); err == nil {
		t.Error("ParseEvent() accepted event without type")
	}
}
