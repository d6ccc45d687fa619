package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{1, 100},
		{0.1 + 0.2, 30},
		{33.333, 3333},
		{1.005, 101},
		{-1.005, -101},
		{-12.5, -1250},
		{99.999, 10000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToCents(tt.in), "ToCents(%v)", tt.in)
	}
}

func TestFromCentsRoundTrip(t *testing.T) {
	for _, c := range []int64{0, 1, -1, 3333, 10000, -250075} {
		assert.Equal(t, c, ToCents(FromCents(c)))
	}
	assert.Equal(t, 33.33, FromCents(3333))
}

func TestDivideCents(t *testing.T) {
	assert.Equal(t, int64(3333), DivideCents(100, 3))
	assert.Equal(t, int64(6667), DivideCents(200, 3))
	assert.Equal(t, int64(10000), DivideCents(300, 3))
	assert.Equal(t, int64(1), DivideCents(0.01, 1))
}

func TestPercentOfCents(t *testing.T) {
	assert.Equal(t, int64(3333), PercentOfCents(100, 33.33))
	assert.Equal(t, int64(2500), PercentOfCents(100, 25))
	assert.Equal(t, int64(1235), PercentOfCents(24.7, 50))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.34", Format(1234))
	assert.Equal(t, "-0.05", Format(-5))
	assert.Equal(t, "0.00", Format(0))

	assert.Equal(t, "100.00", FormatAmount(100))
	assert.Equal(t, "99.50", FormatAmount(99.5))
	assert.Equal(t, "100.016", FormatAmount(100.016))
	assert.Equal(t, 12.35, Round2(12.345))
}

func TestSumAndClose(t *testing.T) {
	// Summed exactly: rounding each term first would give 100.02.
	total := Sum(16.6667, 16.6667, 16.6667, 16.6667, 16.6667, 16.6667)
	assert.Equal(t, "100.0002", total.String())
	assert.True(t, Close(total, 100))

	assert.True(t, Close(Sum(3.33, 3.33, 3.33), 10))
	assert.True(t, Close(Sum(33.335, 33.335, 33.335), 100))
	assert.False(t, Close(Sum(25.004, 25.004, 25.004, 25.004), 100))
	assert.False(t, Close(Sum(50, 49.98), 100))
}
