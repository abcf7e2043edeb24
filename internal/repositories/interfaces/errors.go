package interfaces

import "errors"

// Sentinel errors shared by all repository implementations. Services
// branch on these with errors.Is; everything else wraps the driver error.
var (
	ErrNotFound = errors.New("document not found")

	// ErrStaleWrite means a compare-and-swap lost: the document moved
	// past the expected status or version since it was read.
	ErrStaleWrite = errors.New("stale write: document changed concurrently")

	// ErrPartnerUnavailable means the driver was claimed by another
	// ride between the offer and the accept.
	ErrPartnerUnavailable = errors.New("partner no longer available")

	// ErrSlotTaken means the (doctor, date, slot) combination is already
	// held by a non-cancelled appointment.
	ErrSlotTaken = errors.New("appointment slot already taken")

	// ErrAlreadyPaid guards double settlement of the same bill.
	ErrAlreadyPaid = errors.New("already paid")
)
