// models/vehicle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle listing statuses. Only approved vehicles are bookable.
const (
	VehicleStatusPending  = "pending"
	VehicleStatusApproved = "approved"
	VehicleStatusRejected = "rejected"
	VehicleStatusDelisted = "delisted"
)

// AvailabilityBlock is a blocked interval on a vehicle's calendar. Owner-defined
// blocks carry no BookingID; booking-derived blocks are tagged with the booking
// that created them so cancellation can remove the matching entry.
// Consumers must not assume the list is sorted or non-overlapping.
type AvailabilityBlock struct {
	StartDate time.Time           `json:"startDate" bson:"startDate"`
	EndDate   time.Time           `json:"endDate" bson:"endDate"`
	BookingID *primitive.ObjectID `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Reason    string              `json:"reason,omitempty" bson:"reason,omitempty"`
}

// Vehicle model
type Vehicle struct {
	ID                 primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID            primitive.ObjectID  `json:"ownerId" bson:"ownerId"`
	Make               string              `json:"make" bson:"make"`
	Model              string              `json:"model" bson:"model"`
	Year               int                 `json:"year" bson:"year"`
	PlateNumber        string              `json:"plateNumber,omitempty" bson:"plateNumber,omitempty"`
	Transmission       string              `json:"transmission,omitempty" bson:"transmission,omitempty"` // "manual" or "automatic"
	FuelType           string              `json:"fuelType,omitempty" bson:"fuelType,omitempty"`
	Seats              int                 `json:"seats,omitempty" bson:"seats,omitempty"`
	Description        string              `json:"description,omitempty" bson:"description,omitempty"`
	RentalPricePerDay  float64             `json:"rentalPricePerDay" bson:"rentalPricePerDay"`
	Location           *Location           `json:"location,omitempty" bson:"location,omitempty"`
	PhotoURLs          []string            `json:"photoUrls,omitempty" bson:"photoUrls,omitempty"`
	WalkaroundVideoURL string              `json:"walkaroundVideoUrl,omitempty" bson:"walkaroundVideoUrl,omitempty"`
	VideoThumbnailURL  string              `json:"videoThumbnailUrl,omitempty" bson:"videoThumbnailUrl,omitempty"`
	Availability       []AvailabilityBlock `json:"availability" bson:"availability"`
	Status             string              `json:"status" bson:"status"` // "pending", "approved", "rejected", "delisted"
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// VehicleRequest model for creating/updating a vehicle listing
type VehicleRequest struct {
	Make              string   `json:"make"`
	Model             string   `json:"model"`
	Year              int      `json:"year"`
	PlateNumber       string   `json:"plateNumber,omitempty"`
	Transmission      string   `json:"transmission,omitempty"`
	FuelType          string   `json:"fuelType,omitempty"`
	Seats             int      `json:"seats,omitempty"`
	Description       string   `json:"description,omitempty"`
	RentalPricePerDay float64  `json:"rentalPricePerDay"`
	Address           string   `json:"address,omitempty"`
	City              string   `json:"city,omitempty"`
	Photos            []string `json:"photos,omitempty"`     // Base64 encoded images
	PhotoNames        []string `json:"photoNames,omitempty"` // Original filenames
}

// AvailabilityBlockRequest model for owner-defined calendar blocks
type AvailabilityBlockRequest struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason,omitempty"`
}

// VehicleResponse model
type VehicleResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    *Vehicle `json:"data,omitempty"`
}

// VehiclesResponse model for multiple vehicles
type VehiclesResponse struct {
	Status  int       `json:"status"`
	Message string    `json:"message"`
	Data    []Vehicle `json:"data,omitempty"`
}
