// models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryRatings holds the per-aspect ratings attached to a review.
type CategoryRatings struct {
	Cleanliness   int `json:"cleanliness,omitempty" bson:"cleanliness,omitempty"`
	Accuracy      int `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Communication int `json:"communication,omitempty" bson:"communication,omitempty"`
	Value         int `json:"value,omitempty" bson:"value,omitempty"`
}

// Review model. At most one review exists per booking; the booking's
// reviewSubmitted flag is checked and set in the same transaction that
// inserts the review.
type Review struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID      primitive.ObjectID `json:"bookingId" bson:"bookingId"`
	VehicleID      primitive.ObjectID `json:"vehicleId" bson:"vehicleId"`
	RenterID       primitive.ObjectID `json:"renterId" bson:"renterId"`
	OwnerID        primitive.ObjectID `json:"ownerId" bson:"ownerId"` // denormalized from the booking
	RenterName     string             `json:"renterName,omitempty" bson:"renterName,omitempty"`
	Rating         int                `json:"rating" bson:"rating"`
	Categories     CategoryRatings    `json:"categories,omitempty" bson:"categories,omitempty"`
	Comment        string             `json:"comment,omitempty" bson:"comment,omitempty"`
	Reply          *ReviewReply       `json:"reply,omitempty" bson:"reply,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ReviewReply is the single owner reply on a review.
type ReviewReply struct {
	OwnerID   primitive.ObjectID `json:"ownerId" bson:"ownerId"`
	ReplyText string             `json:"replyText" bson:"replyText"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// ReviewRequest is the model for creating a review
type ReviewRequest struct {
	BookingID  string          `json:"bookingId"`
	Rating     int             `json:"rating"`
	Categories CategoryRatings `json:"categories,omitempty"`
	Comment    string          `json:"comment,omitempty"`
}

// ReviewReplyRequest is the model for the owner's reply
type ReviewReplyRequest struct {
	ReplyText string `json:"replyText"`
}

// ReviewResponse is the model for review responses
type ReviewResponse struct {
	Status  int     `json:"status"`
	Message string  `json:"message"`
	Data    *Review `json:"data,omitempty"`
}

// ReviewsResponse is the model for multiple review responses
type ReviewsResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    []Review `json:"data,omitempty"`
}
