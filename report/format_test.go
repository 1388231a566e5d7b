package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       float64
		currency string
		want     string
	}{
		{45.5, "USD", "45.50 USD"},
		{-3.456, "", "-3.46"},
		{0, "EUR", "0.00 EUR"},
		{1234.005, "USD", "1234.01 USD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Money(tt.in, tt.currency))
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+1.50%", Percent(1.5))
	assert.Equal(t, "-12.35%", Percent(-12.345))
	assert.Equal(t, "+0.00%", Percent(0))
	assert.Equal(t, "+0.00%", Percent(-0.001))
}

func TestCents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.3, Cents(0.1+0.2))
	assert.Equal(t, -5.13, Cents(-5.125))
}
