// models/chat.go
package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat model. Chats are created lazily: a booking-linked chat reuses the booking's
// ID so confirmation can upsert it deterministically; a direct chat between two
// users is keyed by their sorted, joined IDs.
type Chat struct {
	ID           string               `json:"id" bson:"_id"`
	BookingID    *primitive.ObjectID  `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants"` // exactly two
	LastMessage  *LastMessage         `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// LastMessage summary kept on the chat document
type LastMessage struct {
	Text      string               `json:"text" bson:"text"`
	SenderID  primitive.ObjectID   `json:"senderId" bson:"senderId"`
	Timestamp time.Time            `json:"timestamp" bson:"timestamp"`
	ReadBy    []primitive.ObjectID `json:"readBy" bson:"readBy"`
}

// ChatMessage model, stored in the messages collection keyed by chatId
type ChatMessage struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ChatID    string             `json:"chatId" bson:"chatId"`
	SenderID  primitive.ObjectID `json:"senderId" bson:"senderId"`
	Text      string             `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	IsSystem  bool               `json:"isSystem,omitempty" bson:"isSystem,omitempty"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

// DirectChatID derives the deterministic ID for a direct chat between two users.
func DirectChatID(a, b primitive.ObjectID) string {
	ids := []string{a.Hex(), b.Hex()}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// ChatRequest model for opening a direct chat
type ChatRequest struct {
	RecipientID string `json:"recipientId"`
}

// MessageRequest model for sending a message
type MessageRequest struct {
	Text      string `json:"text,omitempty"`
	Image     string `json:"image,omitempty"` // Base64 encoded image
	ImageName string `json:"imageName,omitempty"`
}

// ChatResponse model
type ChatResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *Chat  `json:"data,omitempty"`
}

// ChatsResponse model for multiple chats
type ChatsResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    []Chat `json:"data,omitempty"`
}

// MessagesResponse model for chat history
type MessagesResponse struct {
	Status  int           `json:"status"`
	Message string        `json:"message"`
	Data    []ChatMessage `json:"data,omitempty"`
}
