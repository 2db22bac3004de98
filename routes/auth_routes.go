package routes

import (
	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterAuthRoutes sets up authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	auth := e.Group("/api/auth")

	// Public routes
	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.RefreshToken)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)

	// Protected routes
	protected := auth.Group("")
	protected.Use(middleware.JWTMiddleware())
	protected.POST("/logout", authController.Logout)
	protected.POST("/change-password", authController.ChangePassword)
}
