package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFareGST(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		rate     float64
		wantBase float64
		wantGST  float64
	}{
		{"typical fare", 160.0, 5.0, 152.38, 7.62},
		{"minimum fare", 40.0, 5.0, 38.10, 1.90},
		{"zero fare", 0.0, 5.0, 0.0, 0.0},
		{"zero rate", 100.0, 0.0, 100.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakup := SplitFareGST(tt.total, tt.rate)

			assert.Equal(t, tt.wantBase, breakup.Base)
			assert.Equal(t, tt.wantGST, breakup.GST)
			assert.Equal(t, tt.rate, breakup.GSTRate)
			// base + gst must reconstruct the charged total exactly
			assert.Equal(t, breakup.Total, RoundMoney(breakup.Base+breakup.GST))
		})
	}
}

func TestQuoteFare(t *testing.T) {
	tests := []struct {
		name        string
		distanceKM  float64
		durationSec int
		want        float64
	}{
		{"city trip", 5.0, 600, 105.0},      // 30 + 5*12 + 10*1.5
		{"short hop clamps to minimum", 0.5, 60, MinFare},
		{"zero distance clamps to minimum", 0, 0, MinFare},
		{"intercity clamps to maximum", 1200.0, 36000, MaxFare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteFare(tt.distanceKM, tt.durationSec))
		})
	}
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 152.38, RoundMoney(152.380952))
	assert.Equal(t, 7.62, RoundMoney(7.619048))
	assert.Equal(t, 0.0, RoundMoney(0))
	assert.Equal(t, 10.0, RoundMoney(9.999))
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹160.00", FormatINR(160))
	assert.Equal(t, "₹152.38", FormatINR(152.380952))
}
