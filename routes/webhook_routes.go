package routes

import (
	"github.com/driverent/driverent_backend/controllers"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterWebhookRoutes sets up payment gateway callback routes. No JWT here;
// authenticity comes from the signature header.
func RegisterWebhookRoutes(e *echo.Echo, db *mongo.Client) {
	webhookController := controllers.NewWebhookController(db)
	e.POST("/api/webhooks/paymongo", webhookController.HandlePaymentWebhook)
}
