package domain

import (
	"time"

	"github.com/google/uuid"
)

type RefundReason string

const (
	RefundSelfCancellation      RefundReason = "self_cancellation"
	RefundOrganizerCancellation RefundReason = "organizer_cancellation"
	RefundAttendanceProof       RefundReason = "attendance_proof"
)

// Booking is an active reservation. Its presence, not AmountPaid, marks the
// participant as booked: zero-fee events produce bookings with AmountPaid 0.
type Booking struct {
	EventID     EventID
	Participant uuid.UUID
	AmountPaid  int64
	BookedAt    time.Time
}

// Refund describes a drained booking.
type Refund struct {
	EventID     EventID
	Participant uuid.UUID
	Amount      int64
	Reason      RefundReason
	RefundedAt  time.Time
}

type LedgerEntryKind string

const (
	LedgerDeposit LedgerEntryKind = "deposit"
	LedgerRelease LedgerEntryKind = "release"
)

// LedgerEntry is one movement of value into or out of an event's escrow.
type LedgerEntry struct {
	ID          uuid.UUID
	EventID     EventID
	Participant uuid.UUID
	Kind        LedgerEntryKind
	Amount      int64
	Reason      string
	CreatedAt   time.Time
}

// EscrowBalance is what the vault holds for one participant of an event and
// what it has released to them so far. PaidOut saturates at math.MaxInt64.
type EscrowBalance struct {
	Participant uuid.UUID
	Held        int64
	PaidOut     int64
}
