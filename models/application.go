// models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// HostApplication is a renter's request to become an owner and list vehicles.
// Approval flips the user's role to "owner".
type HostApplication struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID  `json:"userId" bson:"userId"`
	GovernmentID   string              `json:"governmentIdUrl,omitempty" bson:"governmentIdUrl,omitempty"`
	ProofOfAddress string              `json:"proofOfAddressUrl,omitempty" bson:"proofOfAddressUrl,omitempty"`
	Motivation     string              `json:"motivation,omitempty" bson:"motivation,omitempty"`
	Status         string              `json:"status" bson:"status"`
	ReviewedBy     *primitive.ObjectID `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewNote     string              `json:"reviewNote,omitempty" bson:"reviewNote,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// DriveApplication is a renter's licence verification request. Approval sets
// the user's canDrive flag, required before booking.
type DriveApplication struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"userId" bson:"userId"`
	LicenseNumber string              `json:"licenseNumber" bson:"licenseNumber"`
	LicenseFront  string              `json:"licenseFrontUrl,omitempty" bson:"licenseFrontUrl,omitempty"`
	LicenseBack   string              `json:"licenseBackUrl,omitempty" bson:"licenseBackUrl,omitempty"`
	ExpiryDate    string              `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	Status        string              `json:"status" bson:"status"`
	ReviewedBy    *primitive.ObjectID `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewNote    string              `json:"reviewNote,omitempty" bson:"reviewNote,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// HostApplicationRequest model
type HostApplicationRequest struct {
	GovernmentID   string `json:"governmentId,omitempty"`   // Base64 encoded image
	ProofOfAddress string `json:"proofOfAddress,omitempty"` // Base64 encoded image
	Motivation     string `json:"motivation,omitempty"`
}

// DriveApplicationRequest model
type DriveApplicationRequest struct {
	LicenseNumber string `json:"licenseNumber"`
	LicenseFront  string `json:"licenseFront,omitempty"` // Base64 encoded image
	LicenseBack   string `json:"licenseBack,omitempty"`  // Base64 encoded image
	ExpiryDate    string `json:"expiryDate,omitempty"`
}

// ApplicationDecisionRequest model for admin approval/rejection
type ApplicationDecisionRequest struct {
	Status     string `json:"status"` // "approved" or "rejected"
	ReviewNote string `json:"reviewNote,omitempty"`
}
