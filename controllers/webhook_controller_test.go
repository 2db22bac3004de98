package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
)

const testWebhookSecret = "whsec_test_secret"

func paidEvent(eventID string, metadata map[string]string) *models.PayMongoWebhookEvent {
	event := &models.PayMongoWebhookEvent{}
	event.Data.ID = eventID
	event.Data.Attributes.Type = "payment.paid"
	event.Data.Attributes.Data.ID = "pay_123"
	event.Data.Attributes.Data.Attributes.Status = "succeeded"
	event.Data.Attributes.Data.Attributes.Amount = 15000
	event.Data.Attributes.Data.Attributes.Metadata = metadata
	return event
}

// signedWebhookRequest builds an echo context carrying the event body with a
// valid signature header over the exact raw bytes.
func signedWebhookRequest(t *testing.T, event *models.PayMongoWebhookEvent) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	body, err := json.Marshal(event)
	require.NoError(t, err)

	timestamp := "1693400000"
	header := fmt.Sprintf("t=%s,v1=%s", timestamp, utils.ComputeWebhookSignature(testWebhookSecret, timestamp, body))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paymongo", bytes.NewReader(body))
	req.Header.Set("Paymongo-Signature", header)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

// testRedis points config at a throwaway in-memory Redis for the duration of
// the test.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	previous := config.RedisClient
	config.RedisClient = client
	t.Cleanup(func() {
		config.RedisClient = previous
		client.Close()
	})
	return client
}

func TestPaymentPaidWrite(t *testing.T) {
	bookingID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	now := time.Now()

	t.Run("requires both bookingId and userId", func(t *testing.T) {
		for name, metadata := range map[string]map[string]string{
			"no metadata":         nil,
			"missing userId":      {"bookingId": bookingID.Hex()},
			"missing bookingId":   {"userId": userID.Hex()},
			"malformed bookingId": {"bookingId": "not-an-id", "userId": userID.Hex()},
		} {
			_, _, ok := paymentPaidWrite(paidEvent("evt_1", metadata), now)
			assert.False(t, ok, name)
		}
	})

	t.Run("builds an idempotent upsert", func(t *testing.T) {
		filter, update, ok := paymentPaidWrite(paidEvent("evt_1", map[string]string{
			"bookingId": bookingID.Hex(),
			"userId":    userID.Hex(),
		}), now)
		require.True(t, ok)

		assert.Equal(t, bson.M{"_id": bookingID}, filter)

		set := update["$set"].(bson.M)
		assert.Equal(t, models.StatusPaid, set["paymentStatus"])
		assert.Equal(t, "pay_123", set["paymentIntentId"])
		assert.Equal(t, 150.0, set["amountPaid"])

		onInsert := update["$setOnInsert"].(bson.M)
		assert.Equal(t, userID, onInsert["renterId"])
	})
}

func TestHandlePaymentWebhookRejectsBadSignature(t *testing.T) {
	t.Setenv("PAYMONGO_WEBHOOK_SECRET", testWebhookSecret)
	wc := NewWebhookController(nil)

	body := []byte(`{"data":{"id":"evt_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paymongo", bytes.NewReader(body))
	req.Header.Set("Paymongo-Signature", "t=1693400000,v1=deadbeef")
	rec := httptest.NewRecorder()

	require.NoError(t, wc.HandlePaymentWebhook(echo.New().NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlePaymentWebhookDuplicateEventIsNoOp(t *testing.T) {
	t.Setenv("PAYMONGO_WEBHOOK_SECRET", testWebhookSecret)
	client := testRedis(t)

	// First delivery already recorded this event ID.
	require.NoError(t, client.Set(client.Context(), "webhook:event:evt_dup", 1, 0).Err())

	// A nil mongo client proves the duplicate path performs no booking write.
	wc := NewWebhookController(nil)
	ctx, rec := signedWebhookRequest(t, paidEvent("evt_dup", map[string]string{
		"bookingId": primitive.NewObjectID().Hex(),
		"userId":    primitive.NewObjectID().Hex(),
	}))

	require.NoError(t, wc.HandlePaymentWebhook(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Event already processed", responseMessage(t, rec))
}

func TestHandlePaymentWebhookIgnoresOtherEventTypes(t *testing.T) {
	t.Setenv("PAYMONGO_WEBHOOK_SECRET", testWebhookSecret)
	testRedis(t)

	wc := NewWebhookController(nil)
	event := paidEvent("evt_other", map[string]string{
		"bookingId": primitive.NewObjectID().Hex(),
		"userId":    primitive.NewObjectID().Hex(),
	})
	event.Data.Attributes.Type = "source.chargeable"
	ctx, rec := signedWebhookRequest(t, event)

	require.NoError(t, wc.HandlePaymentWebhook(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Event acknowledged", responseMessage(t, rec))
}

func TestHandlePaymentWebhookRequiresCompleteMetadata(t *testing.T) {
	t.Setenv("PAYMONGO_WEBHOOK_SECRET", testWebhookSecret)
	testRedis(t)

	wc := NewWebhookController(nil)
	ctx, rec := signedWebhookRequest(t, paidEvent("evt_meta", map[string]string{
		"bookingId": primitive.NewObjectID().Hex(),
	}))

	require.NoError(t, wc.HandlePaymentWebhook(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Event acknowledged", responseMessage(t, rec))
}
