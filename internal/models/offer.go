package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferState string

const (
	OfferStatePending  OfferState = "pending"
	OfferStateAccepted OfferState = "accepted"
	OfferStateDeclined OfferState = "declined"
	OfferStateExpired  OfferState = "expired"
)

// JobOffer is a pending ride presented to exactly one driver with a
// fixed acceptance window. Offers live in memory inside the dispatcher
// and are mirrored to the driver over the websocket; only the resulting
// accept is persisted.
type JobOffer struct {
	ID        string             `json:"id"`
	RideID    primitive.ObjectID `json:"ride_id"`
	PartnerID primitive.ObjectID `json:"partner_id"`
	State     OfferState         `json:"state"`

	Pickup      Location `json:"pickup"`
	Destination Location `json:"destination"`
	Fare        float64  `json:"fare"`
	Distance    float64  `json:"distance"` // kilometers
	PickupETA   int      `json:"pickup_eta"` // minutes from driver to pickup

	OfferedAt time.Time `json:"offered_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (o *JobOffer) Remaining(now time.Time) time.Duration {
	return o.ExpiresAt.Sub(now)
}

func (o *JobOffer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
