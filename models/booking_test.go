package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusPendingOwnerApproval, StatusPendingPayment},
		{StatusPendingOwnerApproval, StatusDeclinedByOwner},
		{StatusPendingOwnerApproval, StatusCancelledByRenter},
		{StatusPendingPayment, StatusDownpaymentPendingVerification},
		{StatusPendingPayment, StatusCancelledByRenter},
		{StatusDownpaymentPendingVerification, StatusConfirmed},
		{StatusDownpaymentPendingVerification, StatusDownpaymentVerified},
		{StatusDownpaymentVerified, StatusConfirmed},
		{StatusPaid, StatusConfirmed},
		{StatusConfirmed, StatusReturned},
		{StatusConfirmed, StatusCancelledByRenter},
		{StatusReturned, StatusCompleted},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to string }{
		{StatusPendingOwnerApproval, StatusConfirmed},
		{StatusPendingPayment, StatusConfirmed},
		{StatusConfirmed, StatusPendingOwnerApproval},
		{StatusConfirmed, StatusCompleted},
		{StatusReturned, StatusConfirmed},
		{StatusCompleted, StatusReturned},
		{StatusDeclinedByOwner, StatusPendingPayment},
		{StatusCancelledByRenter, StatusConfirmed},
		{StatusReturned, StatusCancelledByRenter},
		{"", StatusConfirmed},
		{StatusConfirmed, ""},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusDeclinedByOwner, StatusCancelledByRenter, StatusCompleted} {
		assert.True(t, IsTerminalStatus(status), status)
	}
	for _, status := range []string{
		StatusPendingOwnerApproval,
		StatusPendingPayment,
		StatusDownpaymentPendingVerification,
		StatusDownpaymentVerified,
		StatusPaid,
		StatusConfirmed,
		StatusReturned,
	} {
		assert.False(t, IsTerminalStatus(status), status)
	}
}

func TestOccupiesCalendar(t *testing.T) {
	assert.True(t, OccupiesCalendar(StatusConfirmed))
	for _, status := range []string{
		StatusPendingOwnerApproval,
		StatusPendingPayment,
		StatusDownpaymentPendingVerification,
		StatusDownpaymentVerified,
		StatusPaid,
		StatusReturned,
		StatusCompleted,
		StatusCancelledByRenter,
		StatusDeclinedByOwner,
	} {
		assert.False(t, OccupiesCalendar(status), status)
	}
}

func TestIsReviewEligible(t *testing.T) {
	assert.True(t, IsReviewEligible(StatusReturned))
	assert.True(t, IsReviewEligible(StatusCompleted))
	for _, status := range []string{
		StatusPendingOwnerApproval,
		StatusPendingPayment,
		StatusConfirmed,
		StatusCancelledByRenter,
		StatusDeclinedByOwner,
	} {
		assert.False(t, IsReviewEligible(status), status)
	}
}
