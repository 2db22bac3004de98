// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleRenter = "renter"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

// User model
type User struct {
	ID             primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"password,omitempty" bson:"password"`
	FullName       string               `json:"fullName" bson:"fullName"`
	Role           string               `json:"role" bson:"role"` // "renter", "owner", "admin"
	Phone          string               `json:"phone,omitempty" bson:"phone,omitempty"`
	DateOfBirth    string               `json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	ProfilePic     string               `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	Location       *Location            `json:"location,omitempty" bson:"location,omitempty"`
	Favorites      []primitive.ObjectID `json:"favorites,omitempty" bson:"favorites,omitempty"` // favorite vehicle IDs
	IsBlocked      bool                 `json:"isBlocked" bson:"isBlocked"`
	CanDrive       bool                 `json:"canDrive" bson:"canDrive"` // set when a drive application is approved
	FCMToken       string               `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	LastActivityAt time.Time            `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Location model
type Location struct {
	Address string  `json:"address" bson:"address"`
	City    string  `json:"city" bson:"city"`
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateLocationRequest struct {
	Location *Location `json:"location"`
}

type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

type FavoriteRequest struct {
	VehicleID string `json:"vehicleId"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
