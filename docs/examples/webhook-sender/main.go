// Command webhook-sender simulates the payment provider for local
// development. It signs a sample billing event with the shared webhook
// secret and posts it to a running API's /webhook endpoint.
//
// Usage:
//
//	go run main.go -secret whsec_dev -url http://localhost:8080/webhook \
//	    -type checkout.session.completed -user usr_123
//
// The signature header has the form "t=<unix>,v1=<hex>", where v1 is
// the HMAC-SHA256 of "<t>.<body>" keyed with the webhook secret. The
// API rejects signatures older than five minutes, so the tool always
// signs with the current time.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	var (
		url       = flag.String("url", "http://localhost:8080/webhook", "webhook endpoint to post to")
		secret    = flag.String("secret", "", "shared webhook secret (required)")
		eventType = flag.String("type", "checkout.session.completed", "event type to send")
		userID    = flag.String("user", "usr_local_dev", "user id placed in the event metadata")
		customer  = flag.String("customer", "cus_local_dev", "provider customer id")
	)
	flag.Parse()

	if *secret == "" {
		log.Fatal("-secret is required")
	}

	body, err := buildEvent(*eventType, *userID, *customer)
	if err != nil {
		log.Fatalf("build event: %v", err)
	}

	timestamp := time.Now().Unix()
	header := fmt.Sprintf("t=%d,v1=%s", timestamp, sign(*secret, timestamp, body))

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Provider-Signature", header)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("post event: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("sent %s: %s %s", *eventType, resp.Status, bytes.TrimSpace(respBody))
}

// buildEvent assembles a minimal provider event of the given type. The
// object payload mirrors what the real provider sends for the fields
// the API reads; everything else is omitted.
func buildEvent(eventType, userID, customer string) ([]byte, error) {
	var object string
	switch eventType {
	case "checkout.session.completed":
		object = fmt.Sprintf(`{
			"id": "cs_local_%d",
			"customer": %q,
			"subscription": "sub_local_dev",
			"metadata": {"userId": %q, "priceId": "price_monthly"}
		}`, time.Now().UnixNano(), customer, userID)
	case "invoice.payment_succeeded":
		object = fmt.Sprintf(`{"id": "in_local_dev", "customer": %q}`, customer)
	case "customer.subscription.updated":
		object = fmt.Sprintf(`{"id": "sub_local_dev", "customer": %q, "status": "past_due"}`, customer)
	case "customer.subscription.deleted":
		object = fmt.Sprintf(`{"id": "sub_local_dev", "customer": %q, "status": "canceled"}`, customer)
	default:
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}

	event := fmt.Sprintf(`{"id": "evt_local_%d", "type": %q, "data": {"object": %s}}`,
		time.Now().UnixNano(), eventType, object)
	return []byte(event), nil
}

func sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
