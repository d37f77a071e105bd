package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every rejection returned by the escrow service wraps
// exactly one of these, so callers can branch with errors.Is on the category
// or on the specific error.
var (
	ErrAuthorization = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrPayment       = errors.New("payment rejected")
	ErrDeadline      = errors.New("deadline passed")
	ErrProof         = errors.New("attendance proof rejected")
	ErrInvalidInput  = errors.New("invalid input")
)

var (
	ErrNotOrganizer    = fmt.Errorf("%w: caller is not the organizer", ErrAuthorization)
	ErrNotBookingOwner = fmt.Errorf("%w: only the participant or the organizer may read this booking", ErrAuthorization)

	ErrEventNotFound   = fmt.Errorf("%w: event", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("%w: booking", ErrNotFound)

	ErrEventExists   = fmt.Errorf("%w: event already exists", ErrConflict)
	ErrAlreadyBooked = fmt.Errorf("%w: participant already has an active booking", ErrConflict)

	ErrInsufficientFee = fmt.Errorf("%w: amount sent is below the event fee", ErrPayment)
	ErrEscrowOverflow  = fmt.Errorf("%w: escrow balance would overflow", ErrPayment)

	ErrCancellationClosed = fmt.Errorf("%w: cancellation window is closed", ErrDeadline)

	ErrSecretMismatch = fmt.Errorf("%w: secret does not match the commitment", ErrProof)

	ErrInvalidEventID     = fmt.Errorf("%w: event id", ErrInvalidInput)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be between 0 and %d", ErrInvalidInput, MaxAmount)
	ErrInvalidWindow      = fmt.Errorf("%w: cancellation window days", ErrInvalidInput)
	ErrInvalidStartTime   = fmt.Errorf("%w: start time", ErrInvalidInput)
	ErrInvalidSecretHash  = fmt.Errorf("%w: attendance secret hash", ErrInvalidInput)
	ErrInvalidParticipant = fmt.Errorf("%w: participant id", ErrInvalidInput)
)

// ErrInsufficientEscrow is raised by a vault asked to release more than it
// holds for an event. It indicates a broken ledger, not a caller mistake.
var ErrInsufficientEscrow = errors.New("escrow balance is lower than the requested release")
