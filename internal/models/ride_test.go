package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from RideStatus
		to   RideStatus
		want bool
	}{
		{"searching to accepted", RideStatusSearching, RideStatusAccepted, true},
		{"searching to no drivers", RideStatusSearching, RideStatusNoDrivers, true},
		{"searching to in progress skips accept", RideStatusSearching, RideStatusInProgress, false},
		{"accepted to arriving", RideStatusAccepted, RideStatusArriving, true},
		{"accepted straight to arrived", RideStatusAccepted, RideStatusArrived, true},
		{"arrived to in progress", RideStatusArrived, RideStatusInProgress, true},
		{"in progress cannot be cancelled", RideStatusInProgress, RideStatusCancelledRider, false},
		{"in progress to completed", RideStatusInProgress, RideStatusCompleted, true},
		{"completed to paid", RideStatusCompleted, RideStatusPaid, true},
		{"completed to payment pending", RideStatusCompleted, RideStatusPaymentPending, true},
		{"payment pending to paid", RideStatusPaymentPending, RideStatusPaid, true},
		{"paid is final", RideStatusPaid, RideStatusCompleted, false},
		{"cancelled is final", RideStatusCancelledRider, RideStatusAccepted, false},
		{"no drivers is final", RideStatusNoDrivers, RideStatusSearching, false},
		{"no backwards moves", RideStatusArrived, RideStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestRideStatusPredicates(t *testing.T) {
	terminal := []RideStatus{RideStatusPaid, RideStatusCancelledRider, RideStatusCancelledDriver, RideStatusNoDrivers}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	open := []RideStatus{RideStatusSearching, RideStatusAccepted, RideStatusInProgress, RideStatusCompleted, RideStatusPaymentPending}
	for _, s := range open {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}

	assert.True(t, RideStatusCancelledRider.IsCancelled())
	assert.True(t, RideStatusCancelledDriver.IsCancelled())
	assert.False(t, RideStatusNoDrivers.IsCancelled())

	assert.True(t, RideStatusAccepted.Active())
	assert.True(t, RideStatusInProgress.Active())
	assert.False(t, RideStatusSearching.Active())
	assert.False(t, RideStatusCompleted.Active())
}

func TestSettlementDue(t *testing.T) {
	tests := []struct {
		name          string
		status        RideStatus
		paymentStatus PaymentStatus
		want          bool
	}{
		{"completed unpaid", RideStatusCompleted, PaymentStatusPending, true},
		{"payment pending unpaid", RideStatusPaymentPending, PaymentStatusPending, true},
		{"completed already paid", RideStatusCompleted, PaymentStatusPaid, false},
		{"in progress never due", RideStatusInProgress, PaymentStatusPending, false},
		{"cancelled never due", RideStatusCancelledRider, PaymentStatusPending, false},
		{"paid never due", RideStatusPaid, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ride := &Ride{Status: tt.status, PaymentStatus: tt.paymentStatus}
			assert.Equal(t, tt.want, ride.SettlementDue())
		})
	}
}

func TestFareLocked(t *testing.T) {
	assert.False(t, (&Ride{PaymentStatus: PaymentStatusPending}).FareLocked())
	assert.True(t, (&Ride{PaymentStatus: PaymentStatusPaid}).FareLocked())
}
