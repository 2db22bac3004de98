// models/booking.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking payment statuses. PaymentStatus is the state-machine discriminant;
// every transition handler consults CanTransition before writing.
const (
	StatusPendingOwnerApproval           = "pending_owner_approval"
	StatusDeclinedByOwner                = "declined_by_owner"
	StatusPendingPayment                 = "pending_payment"
	StatusDownpaymentPendingVerification = "downpayment_pending_verification"
	StatusDownpaymentVerified            = "downpayment_verified"
	StatusPaid                           = "paid" // set by the payment webhook
	StatusConfirmed                      = "confirmed"
	StatusCancelledByRenter              = "cancelled_by_renter"
	StatusReturned                       = "returned"
	StatusCompleted                      = "completed"
)

// DownpaymentRate is the fraction of the total cost due upfront.
const DownpaymentRate = 0.30

// bookingTransitions lists, per current status, the statuses a booking may move to.
// The webhook sets "paid" via upsert and is deliberately outside this table.
var bookingTransitions = map[string][]string{
	StatusPendingOwnerApproval:           {StatusPendingPayment, StatusDeclinedByOwner, StatusCancelledByRenter},
	StatusPendingPayment:                 {StatusDownpaymentPendingVerification, StatusCancelledByRenter},
	StatusDownpaymentPendingVerification: {StatusConfirmed, StatusDownpaymentVerified},
	StatusDownpaymentVerified:            {StatusConfirmed},
	StatusPaid:                           {StatusConfirmed},
	StatusConfirmed:                      {StatusReturned, StatusCancelledByRenter},
	StatusReturned:                       {StatusCompleted},
}

// CanTransition reports whether a booking may move from one payment status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transition is possible from a status.
func IsTerminalStatus(status string) bool {
	return len(bookingTransitions[status]) == 0
}

// OccupiesCalendar reports whether a booking in this status blocks the
// vehicle's calendar for overlap purposes.
func OccupiesCalendar(status string) bool {
	return status == StatusConfirmed
}

// IsReviewEligible reports whether a booking in this status can be reviewed.
func IsReviewEligible(status string) bool {
	return status == StatusReturned || status == StatusCompleted
}

// Booking model
type Booking struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	VehicleID             primitive.ObjectID `json:"vehicleId" bson:"vehicleId"`
	RenterID              primitive.ObjectID `json:"renterId" bson:"renterId"`
	OwnerID               primitive.ObjectID `json:"ownerId" bson:"ownerId"`
	StartDate             time.Time          `json:"startDate" bson:"startDate"` // half-open interval [startDate, endDate)
	EndDate               time.Time          `json:"endDate" bson:"endDate"`
	TotalCost             float64            `json:"totalCost" bson:"totalCost"`
	DownPayment           float64            `json:"downPayment,omitempty" bson:"downPayment,omitempty"`
	RemainingBalance      float64            `json:"remainingBalance,omitempty" bson:"remainingBalance,omitempty"`
	AmountPaid            float64            `json:"amountPaid,omitempty" bson:"amountPaid,omitempty"`
	PaymentStatus         string             `json:"paymentStatus" bson:"paymentStatus"`
	PaymentMethodType     string             `json:"paymentMethodType,omitempty" bson:"paymentMethodType,omitempty"` // "cash", "qr", "gateway"
	PaymentIntentID       string             `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	PaymentProofURL       string             `json:"paymentProofUrl,omitempty" bson:"paymentProofUrl,omitempty"`
	ReviewSubmitted       bool               `json:"reviewSubmitted" bson:"reviewSubmitted"`
	DownpaymentReceivedAt *time.Time         `json:"downpaymentReceivedAt,omitempty" bson:"downpaymentReceivedAt,omitempty"`
	ReturnedAt            *time.Time         `json:"returnedAt,omitempty" bson:"returnedAt,omitempty"`
	CancelledAt           *time.Time         `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookingRequest model
type BookingRequest struct {
	VehicleID         string    `json:"vehicleId"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	PaymentMethodType string    `json:"paymentMethodType"`
}

// BookingStatusUpdateRequest model for owner/admin driven status changes
type BookingStatusUpdateRequest struct {
	Status string `json:"status"`
}

// PaymentProofRequest model for the renter's downpayment submission
type PaymentProofRequest struct {
	ProofImage    string `json:"proofImage,omitempty"` // Base64 encoded receipt/screenshot
	ProofImageExt string `json:"proofImageExt,omitempty"`
	ReferenceNo   string `json:"referenceNo,omitempty"`
}

// AvailabilityQuote is returned by the availability/cost quote endpoint.
type AvailabilityQuote struct {
	Available    bool    `json:"available"`
	Reason       string  `json:"reason,omitempty"`
	BillableDays int     `json:"billableDays,omitempty"`
	TotalCost    float64 `json:"totalCost,omitempty"`
	DownPayment  float64 `json:"downPayment,omitempty"`
}

// BookingResponse model
type BookingResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    *Booking `json:"data,omitempty"`
}

// BookingsResponse model for multiple bookings
type BookingsResponse struct {
	Status  int       `json:"status"`
	Message string    `json:"message"`
	Data    []Booking `json:"data,omitempty"`
}
