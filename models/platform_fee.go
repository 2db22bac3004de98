// models/platform_fee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlatformFeeRate is the marketplace cut recorded on each confirmed booking.
const PlatformFeeRate = 0.10

// PlatformFee model, written inside the booking confirmation transaction.
type PlatformFee struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID   primitive.ObjectID `json:"bookingId" bson:"bookingId"`
	OwnerID     primitive.ObjectID `json:"ownerId" bson:"ownerId"`
	BookingCost float64            `json:"bookingCost" bson:"bookingCost"`
	FeeRate     float64            `json:"feeRate" bson:"feeRate"`
	FeeAmount   float64            `json:"feeAmount" bson:"feeAmount"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// PlatformFeesResponse model
type PlatformFeesResponse struct {
	Status  int           `json:"status"`
	Message string        `json:"message"`
	Data    []PlatformFee `json:"data,omitempty"`
	Total   float64       `json:"total"`
}
