package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"
)

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType, link string, data interface{}) error {
	collection := config.GetCollection(db, "notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Link:      link,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// NotifyUser fans a notification out to the in-app store and FCM.
// Every channel is best-effort: failures are logged and never fail the caller.
func NotifyUser(db *mongo.Client, userID primitive.ObjectID, title, message, notifType, link string, data map[string]interface{}) {
	if err := SaveNotification(db, userID, title, message, notifType, link, data); err != nil {
		log.Printf("Failed to save in-app notification for user %s: %v", userID.Hex(), err)
	}
	if err := SendFCMNotificationToUser(db, userID, title, message, data); err != nil {
		log.Printf("Failed to send FCM notification to user %s: %v", userID.Hex(), err)
	}
}

// SendFCMNotificationToUser sends a Firebase Cloud Messaging notification to a user
func SendFCMNotificationToUser(db *mongo.Client, userID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	collection := config.GetCollection(db, "users")
	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FCMToken == "" {
		return fmt.Errorf("user has no FCM token")
	}

	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"type":      "booking_update",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if data != nil {
		for key, value := range data {
			if str, ok := value.(string); ok {
				notificationData[key] = str
			} else {
				notificationData[key] = fmt.Sprintf("%v", value)
			}
		}
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "driverent_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  message,
					},
					Sound: "default",
					Badge: func() *int { v := 1; return &v }(),
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent to user %s: %s", userID.Hex(), response)
	return nil
}

// SendEmail sends a plain-text email using the configured SMTP provider
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// EmailUser looks the user's address up and sends them an email, logging failures.
func EmailUser(db *mongo.Client, userID primitive.ObjectID, subject, body string) {
	var user models.User
	err := config.GetCollection(db, "users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		log.Printf("Failed to find user %s for email: %v", userID.Hex(), err)
		return
	}
	if err := SendEmail(user.Email, subject, body); err != nil {
		log.Printf("Failed to send email to %s: %v", user.Email, err)
	}
}
