package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.56, RoundMoney(10.555))
	assert.Equal(t, 10.55, RoundMoney(10.554))
	assert.Equal(t, 0.0, RoundMoney(0))
	assert.Equal(t, 100.0, RoundMoney(100))
}

func TestDownpaymentFor(t *testing.T) {
	assert.Equal(t, 300.0, DownpaymentFor(1000))
	assert.Equal(t, 1350.0, DownpaymentFor(4500))
	assert.Equal(t, 0.3, DownpaymentFor(1))
}

func TestRemainingBalanceFor(t *testing.T) {
	assert.Equal(t, 700.0, RemainingBalanceFor(1000))
	// downpayment plus remainder always reconstructs the total
	for _, total := range []float64{1000, 4500, 1234.56, 0.01, 99999.99} {
		assert.InDelta(t, total, DownpaymentFor(total)+RemainingBalanceFor(total), 0.001)
	}
}

func TestPlatformFeeFor(t *testing.T) {
	assert.Equal(t, 100.0, PlatformFeeFor(1000))
	assert.Equal(t, 123.46, PlatformFeeFor(1234.56))
}

func TestToCentavos(t *testing.T) {
	assert.Equal(t, int64(100000), ToCentavos(1000))
	assert.Equal(t, int64(123456), ToCentavos(1234.56))
	// float representation of .1 cents must not truncate down
	assert.Equal(t, int64(2997), ToCentavos(29.97))
	assert.Equal(t, int64(0), ToCentavos(0))
}
