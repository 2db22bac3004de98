// utils/payment.go
package utils

import (
	"math"

	"github.com/driverent/driverent_backend/models"
)

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// DownpaymentFor returns the upfront amount due for a booking total.
func DownpaymentFor(totalCost float64) float64 {
	return RoundMoney(totalCost * models.DownpaymentRate)
}

// RemainingBalanceFor returns what is still owed after the downpayment.
func RemainingBalanceFor(totalCost float64) float64 {
	return RoundMoney(totalCost - DownpaymentFor(totalCost))
}

// PlatformFeeFor returns the marketplace cut recorded at confirmation.
func PlatformFeeFor(totalCost float64) float64 {
	return RoundMoney(totalCost * models.PlatformFeeRate)
}

// ToCentavos converts a peso amount to the integer minor units the gateway expects.
func ToCentavos(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
