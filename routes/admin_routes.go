package routes

import (
	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterAdminRoutes sets up admin-only arbitration and management routes
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Client, bookingController *controllers.BookingController) {
	adminController := controllers.NewAdminController(db)
	applicationController := controllers.NewApplicationController(db)

	// Any authenticated party can file a report on their booking
	reports := e.Group("/api/reports")
	reports.Use(middleware.JWTMiddleware())
	reports.POST("", adminController.FileReport)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(db, models.RoleAdmin))

	// Report arbitration
	admin.GET("/reports", adminController.GetReports)
	admin.PUT("/reports/:id/resolve", adminController.ResolveReport)

	// User management
	admin.GET("/users", adminController.ListUsers)
	admin.PUT("/users/:id/blocked", adminController.SetUserBlocked)

	// Vehicle approval
	admin.GET("/vehicles/pending", adminController.ListPendingVehicles)
	admin.PUT("/vehicles/:id/approval", adminController.SetVehicleApproval)

	// Applications
	admin.GET("/applications/pending", applicationController.ListPendingApplications)
	admin.PUT("/applications/host/:id", applicationController.DecideHostApplication)
	admin.PUT("/applications/drive/:id", applicationController.DecideDriveApplication)

	// Bookings and fees
	admin.DELETE("/bookings/:id", bookingController.DeleteBooking)
	admin.GET("/platform-fees", adminController.GetPlatformFees)
}
