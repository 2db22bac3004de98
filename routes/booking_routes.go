package routes

import (
	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterBookingRoutes sets up booking lifecycle and payment routes
func RegisterBookingRoutes(e *echo.Echo, db *mongo.Client, bookingController *controllers.BookingController) {
	r := e.Group("/api/bookings")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	// Quotes and creation
	r.GET("/availability/:vehicleId", bookingController.CheckAvailability)
	r.POST("", bookingController.CreateBooking)

	// Listing
	r.GET("/user", bookingController.GetUserBookings)
	r.GET("/owner", bookingController.GetOwnerBookings)
	r.GET("/:id", bookingController.GetBooking)

	// Lifecycle transitions
	r.PUT("/:id/approve", bookingController.ApproveBooking)
	r.PUT("/:id/decline", bookingController.DeclineBooking)
	r.PUT("/:id/cancel", bookingController.CancelBooking)
	r.POST("/:id/confirm-downpayment-by-user", bookingController.SubmitDownpayment)
	r.PUT("/:id/confirm-payment", bookingController.ConfirmPayment)
	r.PUT("/:id/return", bookingController.MarkReturned)
	r.PUT("/:id/status", bookingController.UpdateBookingStatus)

	// Payments
	r.GET("/:id/payment-qr", bookingController.GetPaymentQR)
	r.POST("/:id/checkout", bookingController.CreateCheckoutSession)
}
