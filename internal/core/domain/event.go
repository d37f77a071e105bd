package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SecondsPerDay is the unit of cancellationWindowDays. Days are fixed
	// 86400 second spans, not calendar days.
	SecondsPerDay = 86400

	MaxEventIDLength          = 128
	MaxCancellationWindowDays = 36500

	// MaxAmount bounds fees and amounts sent, in the smallest currency unit.
	MaxAmount int64 = 1_000_000_000_000_000
)

// ValidAmount reports whether amount is within [0, MaxAmount].
func ValidAmount(amount int64) bool {
	return amount >= 0 && amount <= MaxAmount
}

// EventID is the externally supplied, opaque identifier of an event.
type EventID string

func (id EventID) Validate() error {
	s := string(id)
	if s == "" || len(s) > MaxEventIDLength || strings.TrimSpace(s) != s {
		return ErrInvalidEventID
	}
	return nil
}

func (id EventID) String() string {
	return string(id)
}

// Event is immutable once created.
type Event struct {
	ID                     EventID
	Organizer              uuid.UUID
	Fee                    int64
	StartTime              time.Time
	CancellationWindowDays int
	AttendanceSecretHash   SecretHash
	CreatedAt              time.Time
}

func (e *Event) Validate() error {
	if err := e.ID.Validate(); err != nil {
		return err
	}
	if !ValidAmount(e.Fee) {
		return ErrInvalidAmount
	}
	if e.StartTime.IsZero() {
		return ErrInvalidStartTime
	}
	if e.CancellationWindowDays < 0 || e.CancellationWindowDays > MaxCancellationWindowDays {
		return ErrInvalidWindow
	}
	if e.AttendanceSecretHash.IsZero() {
		return ErrInvalidSecretHash
	}
	return nil
}

// CancellationDeadline is startTime minus the window in whole days.
func (e *Event) CancellationDeadline() time.Time {
	return e.StartTime.Add(-time.Duration(e.CancellationWindowDays) * SecondsPerDay * time.Second)
}

// CancellationOpen reports whether a cancellation refund is allowed at now.
// The deadline instant itself counts as closed.
func (e *Event) CancellationOpen(now time.Time) bool {
	return now.Before(e.CancellationDeadline())
}

func (e *Event) IsOrganizer(identity uuid.UUID) bool {
	return identity != uuid.Nil && identity == e.Organizer
}
