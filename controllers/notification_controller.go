package controllers

import (
	"net/http"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationController handles in-app notification endpoints
type NotificationController struct {
	db *mongo.Client
}

// NewNotificationController creates a new notification controller
func NewNotificationController(db *mongo.Client) *NotificationController {
	return &NotificationController{db: db}
}

// GetNotifications lists the caller's notifications, newest first
func (nc *NotificationController) GetNotifications(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, nc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := config.GetCollection(nc.db, "notifications").Find(reqCtx, bson.M{"userId": user.ID}, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving notifications",
		})
	}
	defer cursor.Close(reqCtx)

	var notifications []models.Notification
	if err := cursor.All(reqCtx, &notifications); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding notifications",
		})
	}

	unread, err := config.GetCollection(nc.db, "notifications").CountDocuments(reqCtx,
		bson.M{"userId": user.ID, "isRead": false})
	if err != nil {
		unread = 0
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data: map[string]interface{}{
			"notifications": notifications,
			"unreadCount":   unread,
		},
	})
}

// MarkNotificationRead marks one of the caller's notifications as read
func (nc *NotificationController) MarkNotificationRead(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, nc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	notificationID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	result, err := config.GetCollection(nc.db, "notifications").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": notificationID, "userId": user.ID},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notification",
		})
	}
	if result.MatchedCount == 0 {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Notification not found",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// MarkAllNotificationsRead marks every unread notification of the caller as read
func (nc *NotificationController) MarkAllNotificationsRead(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, nc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	result, err := config.GetCollection(nc.db, "notifications").UpdateMany(ctx.Request().Context(),
		bson.M{"userId": user.ID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notifications",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
		Data:    map[string]int64{"updated": result.ModifiedCount},
	})
}
