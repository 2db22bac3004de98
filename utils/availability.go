// utils/availability.go
package utils

import (
	"errors"
	"math"
	"time"

	"github.com/driverent/driverent_backend/models"
)

// Unavailability reasons returned by CheckAvailability
const (
	ReasonOwnerBlock      = "owner block"
	ReasonExistingBooking = "existing booking"
)

var (
	// ErrInvalidInterval is returned when startDate is not strictly before endDate.
	ErrInvalidInterval = errors.New("startDate must be before endDate")
	// ErrPriceNotConfigured is returned when the vehicle's daily rate is missing
	// or non-positive. This is a configuration error, not a retryable one.
	ErrPriceNotConfigured = errors.New("rental price not configured for this vehicle")
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. The predicate is exactly
// aStart < bEnd && aEnd > bStart; anything looser double-books at boundaries.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// CheckAvailability decides whether a vehicle is free for [start, end).
// It scans the vehicle's manual block list first, then the occupying bookings,
// excluding the booking under evaluation when excludeBookingID is non-nil.
// The interval sets are small (one vehicle's calendar) so a linear scan is
// fine; the list must not be assumed sorted or non-overlapping.
func CheckAvailability(vehicle *models.Vehicle, bookings []models.Booking, start, end time.Time, excludeBookingID *string) (bool, string, error) {
	if !start.Before(end) {
		return false, "", ErrInvalidInterval
	}

	for _, block := range vehicle.Availability {
		if Overlaps(start, end, block.StartDate, block.EndDate) {
			return false, ReasonOwnerBlock, nil
		}
	}

	for _, b := range bookings {
		if excludeBookingID != nil && b.ID.Hex() == *excludeBookingID {
			continue
		}
		if !models.OccupiesCalendar(b.PaymentStatus) {
			continue
		}
		if Overlaps(start, end, b.StartDate, b.EndDate) {
			return false, ReasonExistingBooking, nil
		}
	}

	return true, "", nil
}

// BillableDays converts a half-open interval to billable days:
// ceil(hours/24), minimum 1.
func BillableDays(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// ComputeCost multiplies the daily rate by the billable days, rounded to two
// decimal places. A non-positive rate is a fatal configuration error.
func ComputeCost(pricePerDay float64, days int) (float64, error) {
	if pricePerDay <= 0 {
		return 0, ErrPriceNotConfigured
	}
	cost := pricePerDay * float64(days)
	return math.Round(cost*100) / 100, nil
}

// Quote runs the full availability check and, when the interval is free,
// computes the billable cost and downpayment for it.
func Quote(vehicle *models.Vehicle, bookings []models.Booking, start, end time.Time, excludeBookingID *string) (*models.AvailabilityQuote, error) {
	available, reason, err := CheckAvailability(vehicle, bookings, start, end, excludeBookingID)
	if err != nil {
		return nil, err
	}
	if !available {
		return &models.AvailabilityQuote{Available: false, Reason: reason}, nil
	}

	days := BillableDays(start, end)
	cost, err := ComputeCost(vehicle.RentalPricePerDay, days)
	if err != nil {
		return nil, err
	}

	return &models.AvailabilityQuote{
		Available:    true,
		BillableDays: days,
		TotalCost:    cost,
		DownPayment:  DownpaymentFor(cost),
	}, nil
}
