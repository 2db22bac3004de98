package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	vehicleController *controllers.VehicleController,
	bookingController *controllers.BookingController) {

	RegisterAuthRoutes(e, authController)
	RegisterUserRoutes(e, db, userController, hub)
	RegisterVehicleRoutes(e, db, vehicleController)
	RegisterBookingRoutes(e, db, bookingController)
	RegisterAdminRoutes(e, db, bookingController)
	RegisterWebhookRoutes(e, db)
	RegisterFileRoutes(e)
}
