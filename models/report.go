// models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report model. A report is a dispute filed by either party of a booking,
// arbitrated by an admin.
type Report struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID      primitive.ObjectID  `json:"bookingId" bson:"bookingId"`
	ReporterID     primitive.ObjectID  `json:"reporterId" bson:"reporterId"`
	ReportedUserID primitive.ObjectID  `json:"reportedUserId" bson:"reportedUserId"`
	Category       string              `json:"category" bson:"category"` // "damage", "no_show", "payment", "behavior", "other"
	Description    string              `json:"description" bson:"description"`
	EvidenceURLs   []string            `json:"evidenceUrls,omitempty" bson:"evidenceUrls,omitempty"`
	Status         string              `json:"status" bson:"status"`
	Resolution     string              `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolvedBy     *primitive.ObjectID `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time          `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// ReportRequest model for filing a report
type ReportRequest struct {
	BookingID   string   `json:"bookingId"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"` // Base64 encoded images
}

// ReportResolutionRequest model for admin arbitration
type ReportResolutionRequest struct {
	Status     string `json:"status"` // "resolved" or "dismissed"
	Resolution string `json:"resolution"`
}

// ReportResponse model
type ReportResponse struct {
	Status  int     `json:"status"`
	Message string  `json:"message"`
	Data    *Report `json:"data,omitempty"`
}

// ReportsResponse model for multiple reports
type ReportsResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    []Report `json:"data,omitempty"`
}
