package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/carouselcutter/carouselcutter/internal/auth"
	"github.com/carouselcutter/carouselcutter/internal/billing"
	"github.com/carouselcutter/carouselcutter/internal/handler/dto"
	"github.com/carouselcutter/carouselcutter/internal/metrics"
)

// maxWebhookBody caps a provider webhook payload.
const maxWebhookBody = 1 << 20

// BillingHandler handles checkout and provider webhook requests.
type BillingHandler struct {
	svc           *billing.Service
	webhookSecret string
	metrics       metrics.Recorder
	logger        *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(svc *billing.Service, webhookSecret string, recorder metrics.Recorder, logger *slog.Logger) *BillingHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BillingHandler{
		svc:           svc,
		webhookSecret: webhookSecret,
		metrics:       recorder,
		logger:        logger,
	}
}

// Checkout handles POST /api/v1/checkout.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.UserID != "" && req.UserID != authCtx.UserID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Cannot start checkout for another user")
		return
	}

	url, err := h.svc.StartCheckout(r.Context(), authCtx.UserID, req.PriceID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownPrice):
			writeError(w, http.StatusBadRequest, "UNKNOWN_PRICE", "Unknown price ID")
		case errors.Is(err, billing.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		case errors.Is(err, billing.ErrUpstreamFailure):
			writeError(w, http.StatusBadGateway, "UPSTREAM_FAILURE", "Payment provider is unavailable")
		default:
			h.logger.Error("internal_error", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckoutResponse{URL: url})
}

// Webhook handles POST /webhook. The signature is verified over the raw
// body before anything is parsed; rejected deliveries cause no state
// change.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.IncWebhookEvent("rejected")
		writeError(w, http.StatusBadRequest, "UNREADABLE_BODY", "Failed to read request body")
		return
	}

	header := r.Header.Get(billing.SignatureHeader)
	if err := billing.VerifySignature(h.webhookSecret, header, payload, billing.DefaultReplayWindow); err != nil {
		h.metrics.IncWebhookEvent("rejected")
		h.logger.Warn("webhook_rejected", "error", err)
		writeError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	event, err := billing.ParseEvent(payload)
	if err != nil {
		h.metrics.IncWebhookEvent("rejected")
		writeError(w, http.StatusBadRequest, "INVALID_EVENT", "Malformed event payload")
		return
	}

	outcome, err := h.svc.HandleEvent(r.Context(), event)
	if err != nil {
		h.metrics.IncWebhookEvent("error")
		h.logger.Error("webhook_failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
		// Non-2xx so the provider retries the delivery.
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process event")
		return
	}

	h.metrics.IncWebhookEvent(outcome)
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
