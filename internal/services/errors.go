package services

import "errors"

var (
	ErrActiveRideExists = errors.New("an active ride already exists")
	ErrUnsettledBill    = errors.New("previous ride has an unpaid bill")
	ErrNotRideOwner     = errors.New("ride does not belong to this user")
	ErrInvalidOTP       = errors.New("incorrect pickup code")
	ErrOTPExpired       = errors.New("code expired, request a new one")
	ErrRideConflict     = errors.New("ride was updated concurrently, retry")
	ErrOfferClosed      = errors.New("offer is no longer open")
	ErrNoOpenCase       = errors.New("no open case for this user")
)
