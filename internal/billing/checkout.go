package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP client timeouts for calls to the payment provider.
const (
	clientTimeout         = 30 * time.Second
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// ErrUpstreamFailure is returned when the provider call does not succeed.
var ErrUpstreamFailure = errors.New("payment provider request failed")

// Session is a checkout session created on the provider.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ClientConfig configures the provider API client.
type ClientConfig struct {
	// APIBase is the provider API root, e.g. https://api.stripe.com.
	APIBase string
	// SecretKey authenticates server-side API calls.
	SecretKey string
	// SuccessURL and CancelURL are redirect targets after checkout.
	SuccessURL string
	CancelURL  string
}

// Client creates checkout sessions on the payment provider over its REST
// API.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
}

// NewClient builds a provider API client with delivery-grade timeouts.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// CreateSession opens a subscription-mode checkout session for the given
// price, tagging it with the owner so the completion webhook can be tied
// back.
func (c *Client) CreateSession(ctx context.Context, priceID, userID string) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.cfg.SuccessURL)
	form.Set("cancel_url", c.cfg.CancelURL)
	form.Set("metadata[userId]", userID)
	form.Set("metadata[priceId]", priceID)

	endpoint := strings.TrimSuffix(c.cfg.APIBase, "/") + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstreamFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstreamFailure, err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: session has no redirect URL", ErrUpstreamFailure)
	}
	return &session, nil
}
