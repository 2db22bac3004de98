package main

import (
	"log"
	"mime"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/routes"
	"github.com/driverent/driverent_backend/services"
	"github.com/driverent/driverent_backend/utils"
	"github.com/driverent/driverent_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	_ = mime.AddExtensionType(".svg", "image/svg+xml")

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
		AllowEval:      false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Driverent Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize services
	payMongoService := services.NewPayMongoService()
	geocodingService := services.NewGeocodingService()

	// Initialize controllers
	authController := controllers.NewAuthController(client)
	userController := controllers.NewUserController(client, geocodingService)
	vehicleController := controllers.NewVehicleController(client, geocodingService)
	bookingController := controllers.NewBookingController(client, wsHub, payMongoService)

	// Register routes
	routes.SetupRoutes(e, client, wsHub, authController, userController, vehicleController, bookingController)

	// Ensure upload directories exist
	if err := utils.InitializeStorage(); err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
