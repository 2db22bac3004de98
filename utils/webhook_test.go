package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignatureHeader(t *testing.T) {
	t.Run("valid header", func(t *testing.T) {
		sig, err := ParseSignatureHeader("t=1693400000,v1=abcdef0123456789")
		require.NoError(t, err)
		assert.Equal(t, "1693400000", sig.Timestamp)
		assert.Equal(t, "abcdef0123456789", sig.V1)
	})

	t.Run("spaces around keys are tolerated", func(t *testing.T) {
		sig, err := ParseSignatureHeader("t=1693400000, v1=abcdef")
		require.NoError(t, err)
		assert.Equal(t, "abcdef", sig.V1)
	})

	t.Run("malformed headers", func(t *testing.T) {
		for _, header := range []string{
			"",
			"t=1693400000",
			"v1=abcdef",
			"t=,v1=abcdef",
			"not-a-header",
			"t,v1",
		} {
			_, err := ParseSignatureHeader(header)
			assert.ErrorIs(t, err, ErrMalformedSignatureHeader, "header %q", header)
		}
	})
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test_secret"
	body := []byte(`{"data":{"id":"evt_123","attributes":{"type":"payment.paid"}}}`)
	timestamp := "1693400000"
	header := fmt.Sprintf("t=%s,v1=%s", timestamp, ComputeWebhookSignature(secret, timestamp, body))

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, VerifyWebhookSignature(secret, header, body))
	})

	t.Run("tampered body", func(t *testing.T) {
		tampered := []byte(`{"data":{"id":"evt_999","attributes":{"type":"payment.paid"}}}`)
		assert.ErrorIs(t, VerifyWebhookSignature(secret, header, tampered), ErrSignatureMismatch)
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature("whsec_other", header, body), ErrSignatureMismatch)
	})

	t.Run("tampered timestamp", func(t *testing.T) {
		bad := fmt.Sprintf("t=1700000000,v1=%s", ComputeWebhookSignature(secret, timestamp, body))
		assert.ErrorIs(t, VerifyWebhookSignature(secret, bad, body), ErrSignatureMismatch)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(secret, "garbage", body), ErrMalformedSignatureHeader)
	})

	t.Run("missing secret", func(t *testing.T) {
		assert.Error(t, VerifyWebhookSignature("", header, body))
	})
}

func TestComputeWebhookSignatureIsDeterministic(t *testing.T) {
	body := []byte("payload")
	a := ComputeWebhookSignature("secret", "123", body)
	b := ComputeWebhookSignature("secret", "123", body)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
	assert.NotEqual(t, a, ComputeWebhookSignature("secret", "124", body))
}
