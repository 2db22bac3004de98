package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/driverent/driverent_backend/models"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint before", day(1), day(3), day(5), day(7), false},
		{"disjoint after", day(5), day(7), day(1), day(3), false},
		{"back to back is free", day(1), day(3), day(3), day(5), false},
		{"back to back reversed", day(3), day(5), day(1), day(3), false},
		{"partial overlap", day(1), day(4), day(3), day(6), true},
		{"contained", day(2), day(3), day(1), day(5), true},
		{"containing", day(1), day(5), day(2), day(3), true},
		{"identical", day(1), day(3), day(1), day(3), true},
		{"single instant shared start", day(1), day(3), day(1), day(2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// the predicate is symmetric
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestBillableDays(t *testing.T) {
	assert.Equal(t, 1, BillableDays(day(1), day(2)))
	assert.Equal(t, 3, BillableDays(day(1), day(4)))
	// a partial day bills as a full day
	assert.Equal(t, 2, BillableDays(day(1), day(2).Add(6*time.Hour)))
	// degenerate inputs still bill a minimum of one day
	assert.Equal(t, 1, BillableDays(day(1), day(1)))
	assert.Equal(t, 1, BillableDays(day(1), day(1).Add(30*time.Minute)))
}

func TestComputeCost(t *testing.T) {
	cost, err := ComputeCost(1500, 3)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, cost)

	cost, err = ComputeCost(1234.555, 2)
	require.NoError(t, err)
	assert.Equal(t, 2469.11, cost)

	_, err = ComputeCost(0, 3)
	assert.ErrorIs(t, err, ErrPriceNotConfigured)
	_, err = ComputeCost(-10, 3)
	assert.ErrorIs(t, err, ErrPriceNotConfigured)
}

func TestCheckAvailability(t *testing.T) {
	vehicle := &models.Vehicle{
		RentalPricePerDay: 1200,
		Availability: []models.AvailabilityBlock{
			{StartDate: day(10), EndDate: day(12)},
		},
	}
	confirmed := models.Booking{
		ID:            primitive.NewObjectID(),
		StartDate:     day(20),
		EndDate:       day(23),
		PaymentStatus: models.StatusConfirmed,
	}
	pending := models.Booking{
		ID:            primitive.NewObjectID(),
		StartDate:     day(1),
		EndDate:       day(5),
		PaymentStatus: models.StatusPendingOwnerApproval,
	}
	bookings := []models.Booking{confirmed, pending}

	t.Run("invalid interval", func(t *testing.T) {
		_, _, err := CheckAvailability(vehicle, bookings, day(3), day(3), nil)
		assert.ErrorIs(t, err, ErrInvalidInterval)
		_, _, err = CheckAvailability(vehicle, bookings, day(4), day(2), nil)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("free interval", func(t *testing.T) {
		ok, reason, err := CheckAvailability(vehicle, bookings, day(14), day(16), nil)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, reason)
	})

	t.Run("owner block wins", func(t *testing.T) {
		ok, reason, err := CheckAvailability(vehicle, bookings, day(11), day(14), nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonOwnerBlock, reason)
	})

	t.Run("confirmed booking blocks", func(t *testing.T) {
		ok, reason, err := CheckAvailability(vehicle, bookings, day(22), day(25), nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReasonExistingBooking, reason)
	})

	t.Run("pending booking does not block", func(t *testing.T) {
		ok, _, err := CheckAvailability(vehicle, bookings, day(2), day(4), nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("excluded booking is skipped", func(t *testing.T) {
		exclude := confirmed.ID.Hex()
		ok, _, err := CheckAvailability(vehicle, bookings, day(20), day(23), &exclude)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("adjacent to confirmed booking is free", func(t *testing.T) {
		ok, _, err := CheckAvailability(vehicle, bookings, day(23), day(26), nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestQuote(t *testing.T) {
	vehicle := &models.Vehicle{RentalPricePerDay: 1500}

	t.Run("available with cost", func(t *testing.T) {
		quote, err := Quote(vehicle, nil, day(1), day(4), nil)
		require.NoError(t, err)
		assert.True(t, quote.Available)
		assert.Equal(t, 3, quote.BillableDays)
		assert.Equal(t, 4500.0, quote.TotalCost)
		assert.Equal(t, 1350.0, quote.DownPayment)
	})

	t.Run("unavailable skips pricing", func(t *testing.T) {
		busy := []models.Booking{{
			ID:            primitive.NewObjectID(),
			StartDate:     day(1),
			EndDate:       day(5),
			PaymentStatus: models.StatusConfirmed,
		}}
		quote, err := Quote(vehicle, busy, day(2), day(4), nil)
		require.NoError(t, err)
		assert.False(t, quote.Available)
		assert.Equal(t, ReasonExistingBooking, quote.Reason)
		assert.Zero(t, quote.TotalCost)
	})

	t.Run("missing price is an error", func(t *testing.T) {
		_, err := Quote(&models.Vehicle{}, nil, day(1), day(3), nil)
		assert.ErrorIs(t, err, ErrPriceNotConfigured)
	})
}
