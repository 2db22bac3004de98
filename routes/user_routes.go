package routes

import (
	"errors"
	"net/http"

	"github.com/driverent/driverent_backend/controllers"
	"github.com/driverent/driverent_backend/middleware"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/driverent/driverent_backend/websocket"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterUserRoutes sets up profile, favorites, chat and notification routes
func RegisterUserRoutes(e *echo.Echo, db *mongo.Client, userController *controllers.UserController, hub *websocket.Hub) {
	chatController := controllers.NewChatController(db, hub)
	notificationController := controllers.NewNotificationController(db)
	applicationController := controllers.NewApplicationController(db)

	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	// Profile
	r.GET("/users/profile", userController.GetProfile)
	r.PUT("/users/profile", userController.UpdateProfile)
	r.PUT("/users/location", userController.UpdateLocation)
	r.PUT("/users/fcm-token", userController.UpdateFCMToken)
	r.GET("/users/:id", userController.GetUser)

	// Favorites
	r.POST("/users/favorites", userController.AddFavorite)
	r.DELETE("/users/favorites", userController.RemoveFavorite)
	r.GET("/users/favorites", userController.GetFavorites)

	// Applications
	r.POST("/applications/host", applicationController.SubmitHostApplication)
	r.POST("/applications/drive", applicationController.SubmitDriveApplication)
	r.GET("/applications/mine", applicationController.GetMyApplications)

	// Chats
	r.POST("/chats", chatController.OpenChat)
	r.GET("/chats", chatController.GetChats)
	r.GET("/chats/:chatId/messages", chatController.GetMessages)
	r.POST("/chats/:chatId/messages", chatController.SendMessage)
	r.PUT("/chats/:chatId/read", chatController.MarkChatRead)

	// Notifications
	r.GET("/notifications", notificationController.GetNotifications)
	r.PUT("/notifications/:id/read", notificationController.MarkNotificationRead)
	r.PUT("/notifications/read-all", notificationController.MarkAllNotificationsRead)

	// WebSocket route
	r.GET("/ws", func(c echo.Context) error {
		user, err := utils.GetUserFromToken(c, db)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}

		return websocket.HandleWebSocket(c, hub, user.ID, tokenAuthenticator())
	})
}

// tokenAuthenticator builds the AUTH-message validator for live connections.
func tokenAuthenticator() websocket.Authenticator {
	return func(token string) (primitive.ObjectID, error) {
		claims := &middleware.JwtCustomClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(middleware.GetJWTSecret()), nil
		})
		if err != nil || !parsed.Valid {
			return primitive.NilObjectID, errors.New("invalid token")
		}
		if middleware.IsTokenBlacklisted(token) {
			return primitive.NilObjectID, errors.New("token revoked")
		}
		return primitive.ObjectIDFromHex(claims.UserID)
	}
}
