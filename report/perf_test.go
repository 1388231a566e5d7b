package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentChange(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -10.0, PercentChange(900, 1000), 1e-9)
	assert.InDelta(t, 4.55, PercentChange(1045.5, 1000), 1e-9)
	assert.Equal(t, 0.0, PercentChange(500, 0))
}

func TestThresholdsColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pct  float64
		want Color
	}{
		{5, Lime},
		{0, Lime},
		{-5, Orange},
		{-12, Orange},
		{-15, OrangeRed},
		{-20, OrangeRed},
		{-25, Red},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultThresholds.Color(tt.pct), "pct %.1f", tt.pct)
	}

	custom := Thresholds{Warning: -1, Critical: -2}
	assert.Equal(t, Red, custom.Color(-3))
}
