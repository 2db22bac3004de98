package controllers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/driverent/driverent_backend/config"
	"github.com/driverent/driverent_backend/models"
	"github.com/driverent/driverent_backend/utils"
	"github.com/driverent/driverent_backend/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatController handles chat and messaging endpoints
type ChatController struct {
	db  *mongo.Client
	hub *websocket.Hub
}

// NewChatController creates a new chat controller
func NewChatController(db *mongo.Client, hub *websocket.Hub) *ChatController {
	return &ChatController{db: db, hub: hub}
}

// OpenChat opens (or returns) the direct chat between the caller and another
// user. Chats are created lazily with a deterministic ID, so opening the same
// pair twice always lands on the same document.
func (cc *ChatController) OpenChat(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, cc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.ChatRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	recipientID, err := primitive.ObjectIDFromHex(request.RecipientID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid recipient ID",
		})
	}
	if recipientID == user.ID {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "You cannot open a chat with yourself",
		})
	}

	reqCtx := ctx.Request().Context()

	count, err := config.GetCollection(cc.db, "users").CountDocuments(reqCtx, bson.M{"_id": recipientID})
	if err != nil || count == 0 {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Recipient not found",
		})
	}

	now := time.Now()
	chatID := models.DirectChatID(user.ID, recipientID)
	chat := models.Chat{
		ID:           chatID,
		Participants: []primitive.ObjectID{user.ID, recipientID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	upsert := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	result := config.GetCollection(cc.db, "chats").FindOneAndUpdate(reqCtx,
		bson.M{"_id": chatID},
		bson.M{"$setOnInsert": chat},
		upsert)

	var existing models.Chat
	if err := result.Decode(&existing); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to open chat",
		})
	}

	return ctx.JSON(http.StatusOK, models.ChatResponse{
		Status:  http.StatusOK,
		Message: "Chat opened",
		Data:    &existing,
	})
}

// GetChats lists the caller's chats, most recently active first
func (cc *ChatController) GetChats(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, cc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := config.GetCollection(cc.db, "chats").Find(reqCtx, bson.M{"participants": user.ID}, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving chats",
		})
	}
	defer cursor.Close(reqCtx)

	var chats []models.Chat
	if err := cursor.All(reqCtx, &chats); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding chats",
		})
	}

	return ctx.JSON(http.StatusOK, models.ChatsResponse{
		Status:  http.StatusOK,
		Message: "Chats retrieved successfully",
		Data:    chats,
	})
}

// chatForParticipant loads a chat and verifies the caller belongs to it.
func (cc *ChatController) chatForParticipant(ctx echo.Context, user *models.User) (*models.Chat, int, string) {
	chatID := ctx.Param("chatId")

	var chat models.Chat
	err := config.GetCollection(cc.db, "chats").FindOne(ctx.Request().Context(), bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, http.StatusNotFound, "Chat not found"
		}
		return nil, http.StatusInternalServerError, "Error retrieving chat"
	}

	for _, p := range chat.Participants {
		if p == user.ID {
			return &chat, http.StatusOK, ""
		}
	}
	return nil, http.StatusForbidden, "You are not a participant in this chat"
}

// GetMessages returns a chat's message history, oldest first
func (cc *ChatController) GetMessages(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, cc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	chat, status, msg := cc.chatForParticipant(ctx, user)
	if chat == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	reqCtx := ctx.Request().Context()

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := config.GetCollection(cc.db, "messages").Find(reqCtx, bson.M{"chatId": chat.ID}, findOptions)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error retrieving messages",
		})
	}
	defer cursor.Close(reqCtx)

	var messages []models.ChatMessage
	if err := cursor.All(reqCtx, &messages); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error decoding messages",
		})
	}

	return ctx.JSON(http.StatusOK, models.MessagesResponse{
		Status:  http.StatusOK,
		Message: "Messages retrieved successfully",
		Data:    messages,
	})
}

// SendMessage appends a message to a chat and pushes it to the other
// participant's live connection
func (cc *ChatController) SendMessage(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, cc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	chat, status, msg := cc.chatForParticipant(ctx, user)
	if chat == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	var request models.MessageRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if request.Text == "" && request.Image == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Message must contain text or an image",
		})
	}

	reqCtx := ctx.Request().Context()
	now := time.Now()

	message := models.ChatMessage{
		ID:        primitive.NewObjectID(),
		ChatID:    chat.ID,
		SenderID:  user.ID,
		Text:      request.Text,
		Timestamp: now,
	}

	if request.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(request.Image)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid image format",
			})
		}
		ext := ".jpg"
		if e := filepath.Ext(request.ImageName); e != "" {
			ext = e
		}
		filename := fmt.Sprintf("%s_%s%s", chat.ID, uuid.NewString(), ext)
		imageURL, err := utils.UploadFileToPath(decoded, filename, "image", "chats")
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: fmt.Sprintf("Failed to upload image: %v", err),
			})
		}
		message.ImageURL = imageURL
	}

	if _, err := config.GetCollection(cc.db, "messages").InsertOne(reqCtx, message); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send message",
		})
	}

	summaryText := request.Text
	if summaryText == "" {
		summaryText = "[image]"
	}
	if _, err := config.GetCollection(cc.db, "chats").UpdateOne(reqCtx,
		bson.M{"_id": chat.ID},
		bson.M{"$set": bson.M{
			"lastMessage": models.LastMessage{
				Text:      summaryText,
				SenderID:  user.ID,
				Timestamp: now,
				ReadBy:    []primitive.ObjectID{user.ID},
			},
			"updatedAt": now,
		}}); err != nil {
		log.Printf("Failed to update chat summary for %s: %v", chat.ID, err)
	}

	// Push to the other participant; offline users get an in-app notification
	for _, p := range chat.Participants {
		if p == user.ID {
			continue
		}
		if err := cc.hub.NotifyChatMessage(p, message); err != nil {
			utils.NotifyUser(cc.db, p,
				"New Message",
				fmt.Sprintf("%s: %s", user.FullName, summaryText),
				"chat_message",
				"/chats/"+chat.ID,
				map[string]interface{}{"chatId": chat.ID})
		}
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Message sent",
		Data:    message,
	})
}

// MarkChatRead records that the caller has read the chat's latest message
func (cc *ChatController) MarkChatRead(ctx echo.Context) error {
	user, err := utils.GetUserFromToken(ctx, cc.db)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	chat, status, msg := cc.chatForParticipant(ctx, user)
	if chat == nil {
		return ctx.JSON(status, models.Response{Status: status, Message: msg})
	}

	if _, err := config.GetCollection(cc.db, "chats").UpdateOne(ctx.Request().Context(),
		bson.M{"_id": chat.ID},
		bson.M{"$addToSet": bson.M{"lastMessage.readBy": user.ID}}); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to mark chat as read",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Chat marked as read",
	})
}
