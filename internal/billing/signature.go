// Package billing integrates with the hosted payment provider: checkout
// session creation and verification/processing of inbound webhook events.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrReplayWindowExceeded is returned when the timestamp is outside the
	// replay protection window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrMalformedSignature is returned when the signature header cannot be
	// parsed.
	ErrMalformedSignature = errors.New("malformed signature header")
)

// DefaultReplayWindow is the default replay protection window.
const DefaultReplayWindow = 5 * time.Minute

// SignatureHeader is the provider's signature header name.
const SignatureHeader = "Provider-Signature"

// Sign creates the HMAC-SHA256 signature for a payload at a timestamp.
// The canonical string format is: "{timestamp}.{payload}".
func Sign(secret string, timestamp int64, payload []byte) string {
	canonical := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue renders the header format the provider sends:
// "t=<unix>,v1=<hex>". Used by tests and local tooling.
func SignatureHeaderValue(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, Sign(secret, timestamp, payload))
}

// VerifySignature checks a provider signature header against the raw
// request body. It enforces the replay window and uses a constant-time
// comparison. Events failing verification must be dropped without any
// state action.
func VerifySignature(secret, header string, payload []byte, replayWindow time.Duration) error {
	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	if abs(now-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := Sign(secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// parseSignatureHeader extracts timestamp and v1 signature from the
// "t=...,v1=..." header format.
func parseSignatureHeader(header string) (int64, string, error) {
	var (
		timestamp int64
		signature string
		sawT      bool
	)

	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: bad timestamp", ErrMalformedSignature)
			}
			timestamp = ts
			sawT = true
		case "v1":
			signature = v
		}
	}

	if !sawT || signature == "" {
		return 0, "", ErrMalformedSignature
	}
	return timestamp, signature, nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
