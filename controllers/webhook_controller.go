package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// webhookDedupTTL bounds how long a processed event ID is remembered.
const webhookDedupTTL = 72 * time.Hour

// WebhookController receives payment gateway event callbacks
type WebhookController struct {
	db *mongo.Client
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(db *mongo.Client) *WebhookController {
	return &WebhookController{db: db}
}

// HandlePaymentWebhook processes gateway payment events. The signature is
// verified over the raw body before any parsing. Failures after verification
// are acknowledged with 200 so the gateway does not retry forever; they are
// logged for manual reconciliation instead.
func (wc *WebhookController) HandlePaymentWebhook(ctx echo.Context) error {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to read request body",
		})
	}

	secret := os.Getenv("PAYMONGO_WEBHOOK_SECRET")
	header := ctx.Request().Header.Get("Paymongo-Signature")
	if err := utils.VerifyWebhookSignature(secret, header, rawBody); err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid webhook signature",
		})
	}

	var event models.PayMongoWebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		log.Printf("Webhook payload parse failed after verification: %v", err)
		return wc.ack(ctx, "Event acknowledged")
	}

	eventID := event.Data.ID
	if eventID == "" {
		log.Printf("Webhook event has no ID, skipping")
		return wc.ack(ctx, "Event acknowledged")
	}

	reqCtx := ctx.Request().Context()

	// Gateways deliver at-least-once; drop event IDs we have already processed
	if redisClient := config.GetRedisClient(); redisClient != nil {
		fresh, err := redisClient.SetNX(reqCtx, "webhook:event:"+eventID, 1, webhookDedupTTL).Result()
		if err != nil {
			log.Printf("Webhook dedup check failed for event %s: %v", eventID, err)
		} else if !fresh {
			return wc.ack(ctx, "Event already processed")
		}
	}

	eventType := event.Data.Attributes.Type
	status := event.Data.Attributes.Data.Attributes.Status
	if eventType != "payment.paid" || status != "succeeded" {
		log.Printf("Ignoring webhook event %s of type %s (status %s)", eventID, eventType, status)
		return wc.ack(ctx, "Event acknowledged")
	}

	filter, update, ok := paymentPaidWrite(&event, time.Now())
	if !ok {
		log.Printf("Webhook event %s is missing a valid bookingId or userId in metadata", eventID)
		return wc.ack(ctx, "Event acknowledged")
	}

	// Upsert so a webhook racing ahead of the booking record still lands;
	// the set is idempotent under redelivery either way.
	result, err := config.GetCollection(wc.db, "bookings").UpdateOne(reqCtx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		log.Printf("Webhook event %s: failed to record payment: %v", eventID, err)
		return wc.ack(ctx, "Event acknowledged")
	}
	if result.UpsertedCount > 0 {
		log.Printf("Webhook event %s arrived before its booking record; payment stored by upsert", eventID)
	}

	var booking models.Booking
	if err := config.GetCollection(wc.db, "bookings").FindOne(reqCtx, filter).Decode(&booking); err == nil {
		if booking.OwnerID != primitive.NilObjectID {
			utils.NotifyUser(wc.db, booking.OwnerID,
				"Payment Received",
				"A gateway payment for your booking was received and awaits your confirmation.",
				"booking_update",
				"/bookings/"+booking.ID.Hex(),
				map[string]interface{}{"bookingId": booking.ID.Hex(), "paymentStatus": models.StatusPaid})
		}
	}

	return wc.ack(ctx, "Event processed")
}

// paymentPaidWrite derives the booking filter and update for a verified
// payment event. Both bookingId and userId must be present in the gateway
// metadata before anything is written.
func paymentPaidWrite(event *models.PayMongoWebhookEvent, now time.Time) (bson.M, bson.M, bool) {
	meta := event.Data.Attributes.Data.Attributes.Metadata
	bookingID, err := primitive.ObjectIDFromHex(meta["bookingId"])
	if err != nil {
		return nil, nil, false
	}
	renterID, err := primitive.ObjectIDFromHex(meta["userId"])
	if err != nil {
		return nil, nil, false
	}

	amount := float64(event.Data.Attributes.Data.Attributes.Amount) / 100
	filter := bson.M{"_id": bookingID}
	update := bson.M{
		"$set": bson.M{
			"paymentStatus":         models.StatusPaid,
			"paymentIntentId":       event.Data.Attributes.Data.ID,
			"amountPaid":            amount,
			"downpaymentReceivedAt": now,
			"updatedAt":             now,
		},
		"$setOnInsert": bson.M{
			"renterId":  renterID,
			"createdAt": now,
		},
	}
	return filter, update, true
}

func (wc *WebhookController) ack(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}
