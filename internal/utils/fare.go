package utils

import (
	"fmt"
	"math"
)

// FareBreakup is the GST-inclusive decomposition of a quoted fare.
// Every bill rendering goes through SplitFareGST so the formula exists
// exactly once.
type FareBreakup struct {
	Total   float64 `json:"total"`
	Base    float64 `json:"base_fare"`
	GST     float64 `json:"gst"`
	GSTRate float64 `json:"gst_rate"`
}

// SplitFareGST decomposes a GST-inclusive total: base = total/(1+rate),
// gst = total - base. base+gst always round-trips to the total within
// rounding tolerance; fare=160 at 5% gives base 152.38, gst 7.62.
func SplitFareGST(total, ratePercent float64) FareBreakup {
	base := RoundMoney(total / (1 + ratePercent/100))
	gst := RoundMoney(total - base)
	return FareBreakup{
		Total:   RoundMoney(total),
		Base:    base,
		GST:     gst,
		GSTRate: ratePercent,
	}
}

// QuoteFare computes the GST-inclusive fare for a routed trip.
// distanceKM and durationSec come from the routing service or the
// haversine fallback.
func QuoteFare(distanceKM float64, durationSec int) float64 {
	fare := BaseCharge + distanceKM*PerKMRate + float64(durationSec)/60*PerMinuteRate
	if fare < MinFare {
		fare = MinFare
	}
	if fare > MaxFare {
		fare = MaxFare
	}
	return RoundMoney(fare)
}

func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func FormatINR(amount float64) string {
	return fmt.Sprintf("₹%.2f", RoundMoney(amount))
}
