// utils/webhook.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSignatureHeader is returned when the signature header is
	// missing or not of the form "t=<unix-seconds>,v1=<hex>".
	ErrMalformedSignatureHeader = errors.New("malformed signature header")
	// ErrSignatureMismatch is returned when the computed HMAC does not match.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// WebhookSignature is the parsed form of the gateway's signature header.
type WebhookSignature struct {
	Timestamp string
	V1        string
}

// ParseSignatureHeader splits a "t=<unix-seconds>,v1=<hex>" header.
func ParseSignatureHeader(header string) (*WebhookSignature, error) {
	if header == "" {
		return nil, ErrMalformedSignatureHeader
	}

	sig := &WebhookSignature{}
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, ErrMalformedSignatureHeader
		}
		switch strings.TrimSpace(kv[0]) {
		case "t":
			sig.Timestamp = kv[1]
		case "v1":
			sig.V1 = kv[1]
		}
	}

	if sig.Timestamp == "" || sig.V1 == "" {
		return nil, ErrMalformedSignatureHeader
	}
	return sig, nil
}

// ComputeWebhookSignature computes hex(HMAC-SHA256(secret, "<t>.<rawBody>")).
// The signed string uses the raw request body bytes; re-serializing a parsed
// payload would silently break the signature.
func ComputeWebhookSignature(secret, timestamp string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature validates the signature header against the raw body
// using a constant-time comparison.
func VerifyWebhookSignature(secret, header string, rawBody []byte) error {
	if secret == "" {
		return fmt.Errorf("webhook signing secret is not configured")
	}

	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := ComputeWebhookSignature(secret, sig.Timestamp, rawBody)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig.V1)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
