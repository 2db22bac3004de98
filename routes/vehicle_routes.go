package routes

import (
	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterVehicleRoutes sets up vehicle listing and review routes
func RegisterVehicleRoutes(e *echo.Echo, db *mongo.Client, vehicleController *controllers.VehicleController) {
	reviewController := controllers.NewReviewController(db)

	// Public browsing
	public := e.Group("/api/vehicles")
	public.GET("", vehicleController.GetVehicles)
	public.GET("/:id", vehicleController.GetVehicle)
	public.GET("/:vehicleId/reviews", reviewController.GetVehicleReviews)
	e.GET("/api/reviews/host/:hostId", reviewController.GetOwnerReviews)

	// Owner-gated management
	owner := e.Group("/api/vehicles")
	owner.Use(middleware.JWTMiddleware())
	owner.Use(middleware.RequireRole(db, models.RoleOwner, models.RoleAdmin))
	owner.POST("", vehicleController.CreateVehicle)
	owner.PUT("/:id", vehicleController.UpdateVehicle)
	owner.DELETE("/:id", vehicleController.DeleteVehicle)
	owner.POST("/:id/video", vehicleController.UploadWalkaroundVideo)
	owner.POST("/:id/availability", vehicleController.AddAvailabilityBlock)
	owner.DELETE("/:id/availability", vehicleController.RemoveAvailabilityBlock)
	owner.GET("/mine/list", vehicleController.GetOwnerVehicles)

	// Authenticated review actions
	reviews := e.Group("/api/reviews")
	reviews.Use(middleware.JWTMiddleware())
	reviews.POST("", reviewController.CreateReview)
	reviews.POST("/:id/reply", reviewController.ReplyToReview)
}
