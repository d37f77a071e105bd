package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/ports"
	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

type CreateEventRequest struct {
	ID                     string `json:"id"`
	Fee                    int64  `json:"fee"`
	StartTime              string `json:"start_time"`
	CancellationWindowDays int    `json:"cancellation_window_days"`
	AttendanceSecretHash   string `json:"attendance_secret_hash"`
}

type EventResponse struct {
	ID                     string `json:"id"`
	Organizer              string `json:"organizer"`
	Fee                    int64  `json:"fee"`
	StartTime              string `json:"start_time"`
	CancellationWindowDays int    `json:"cancellation_window_days"`
	CancellationDeadline   string `json:"cancellation_deadline"`
	AttendanceSecretHash   string `json:"attendance_secret_hash"`
}

type BookingResponse struct {
	Booked     bool  `json:"booked"`
	AmountPaid int64 `json:"amount_paid"`
}

type RefundResponse struct {
	EventID     string `json:"event_id"`
	Participant string `json:"participant"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
	RefundedAt  string `json:"refunded_at"`
}

// EscrowService owns the event registry and the per-event booking ledger.
// Every operation runs inside a single transaction from the Transactor, so a
// rejected call leaves no trace.
type EscrowService struct {
	organizer uuid.UUID
	events    ports.EventRepository
	bookings  ports.BookingRepository
	vault     ports.Vault
	tx        ports.Transactor
	clock     ports.Clock
}

func NewEscrowService(
	organizer uuid.UUID,
	events ports.EventRepository,
	bookings ports.BookingRepository,
	vault ports.Vault,
	tx ports.Transactor,
	clock ports.Clock,
) *EscrowService {
	return &EscrowService{
		organizer: organizer,
		events:    events,
		bookings:  bookings,
		vault:     vault,
		tx:        tx,
		clock:     clock,
	}
}

// Organizer is the system-wide identity allowed to create events.
func (s *EscrowService) Organizer() uuid.UUID {
	return s.organizer
}

func (s *EscrowService) CreateEvent(ctx context.Context, caller uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if caller == uuid.Nil || caller != s.organizer {
		return nil, domain.ErrNotOrganizer
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return nil, domain.ErrInvalidStartTime
	}

	hash, err := domain.ParseSecretHash(req.AttendanceSecretHash)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:                     domain.EventID(req.ID),
		Organizer:              caller,
		Fee:                    req.Fee,
		StartTime:              startTime.UTC().Truncate(time.Second),
		CancellationWindowDays: req.CancellationWindowDays,
		AttendanceSecretHash:   hash,
		CreatedAt:              s.clock.Now().UTC().Truncate(time.Second),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.events.GetByID(ctx, event.ID)
		switch {
		case err == nil:
			return domain.ErrEventExists
		case !errors.Is(err, domain.ErrEventNotFound):
			return err
		}

		return s.events.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":   event.ID,
		"fee":        event.Fee,
		"start_time": event.StartTime,
		"deadline":   event.CancellationDeadline(),
	}).Info("Event created")

	return toEventResponse(event), nil
}

func (s *EscrowService) Exists(ctx context.Context, id domain.EventID) (bool, error) {
	_, err := s.events.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrEventNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *EscrowService) GetEvent(ctx context.Context, id domain.EventID) (*EventResponse, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEventResponse(event), nil
}

// FeeOf fails with ErrEventNotFound for unknown events.
func (s *EscrowService) FeeOf(ctx context.Context, id domain.EventID) (int64, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return event.Fee, nil
}

func (s *EscrowService) CancellationDeadline(ctx context.Context, id domain.EventID) (time.Time, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return event.CancellationDeadline(), nil
}

// Book escrows amountSent for caller. The full amount is kept, not clamped
// to the fee, and must not exceed domain.MaxAmount.
func (s *EscrowService) Book(ctx context.Context, caller uuid.UUID, id domain.EventID, amountSent int64) (*BookingResponse, error) {
	if caller == uuid.Nil {
		return nil, domain.ErrInvalidParticipant
	}
	if !domain.ValidAmount(amountSent) {
		return nil, domain.ErrInvalidAmount
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = s.bookings.Get(ctx, id, caller)
		switch {
		case err == nil:
			return domain.ErrAlreadyBooked
		case !errors.Is(err, domain.ErrBookingNotFound):
			return err
		}

		if amountSent < event.Fee {
			return fmt.Errorf("%w: sent %d, fee is %d", domain.ErrInsufficientFee, amountSent, event.Fee)
		}

		booking := &domain.Booking{
			EventID:     id,
			Participant: caller,
			AmountPaid:  amountSent,
			BookedAt:    s.clock.Now().UTC(),
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return err
		}

		if err := s.vault.Deposit(ctx, id, caller, amountSent); err != nil {
			return fmt.Errorf("take custody: %w", err)
		}

		return nil
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event_id", id).Debug("Booking rejected")
		return nil, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":    id,
		"participant": caller,
		"amount":      amountSent,
	}).Info("Booking escrowed")

	return &BookingResponse{Booked: true, AmountPaid: amountSent}, nil
}

// MyBooking reports the caller's own booking. It never fails for a known
// event.
func (s *EscrowService) MyBooking(ctx context.Context, caller uuid.UUID, id domain.EventID) (*BookingResponse, error) {
	return s.BookingOf(ctx, caller, id, caller)
}

// BookingOf reads participant's booking. Only the participant and the
// event's organizer may read it; anyone else gets ErrNotBookingOwner instead
// of a default value.
func (s *EscrowService) BookingOf(ctx context.Context, caller uuid.UUID, id domain.EventID, participant uuid.UUID) (*BookingResponse, error) {
	if caller == uuid.Nil {
		return nil, domain.ErrNotBookingOwner
	}

	var resp *BookingResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if caller != participant && !event.IsOrganizer(caller) {
			return domain.ErrNotBookingOwner
		}

		booking, err := s.bookings.Get(ctx, id, participant)
		switch {
		case err == nil:
			resp = &BookingResponse{Booked: true, AmountPaid: booking.AmountPaid}
		case errors.Is(err, domain.ErrBookingNotFound):
			resp = &BookingResponse{Booked: false, AmountPaid: 0}
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *EscrowService) RefundSelfThroughCancellation(ctx context.Context, caller uuid.UUID, id domain.EventID) (*RefundResponse, error) {
	return s.refund(ctx, id, caller, domain.RefundSelfCancellation, func(event *domain.Event, now time.Time) error {
		return checkCancellationWindow(event, now)
	})
}

// RefundParticipantThroughCancellation lets the organizer cancel someone
// else's booking, within the same window as a self-cancellation.
func (s *EscrowService) RefundParticipantThroughCancellation(ctx context.Context, caller uuid.UUID, id domain.EventID, participant uuid.UUID) (*RefundResponse, error) {
	return s.refund(ctx, id, participant, domain.RefundOrganizerCancellation, func(event *domain.Event, now time.Time) error {
		if !event.IsOrganizer(caller) {
			return domain.ErrNotOrganizer
		}
		return checkCancellationWindow(event, now)
	})
}

// RefundThroughAttendanceProof refunds the caller's booking if secret hashes
// to the event's commitment, regardless of the cancellation deadline.
func (s *EscrowService) RefundThroughAttendanceProof(ctx context.Context, caller uuid.UUID, id domain.EventID, secret string) (*RefundResponse, error) {
	return s.refund(ctx, id, caller, domain.RefundAttendanceProof, func(event *domain.Event, _ time.Time) error {
		if !event.AttendanceSecretHash.Matches(secret) {
			return domain.ErrSecretMismatch
		}
		return nil
	})
}

func checkCancellationWindow(event *domain.Event, now time.Time) error {
	if !event.CancellationOpen(now) {
		return fmt.Errorf("%w: deadline was %s", domain.ErrCancellationClosed, event.CancellationDeadline().Format(time.RFC3339))
	}
	return nil
}

// refund drains participant's booking on event id after guard accepts. The
// release and the booking removal commit together or not at all.
func (s *EscrowService) refund(
	ctx context.Context,
	id domain.EventID,
	participant uuid.UUID,
	reason domain.RefundReason,
	guard func(event *domain.Event, now time.Time) error,
) (*RefundResponse, error) {
	if participant == uuid.Nil {
		return nil, domain.ErrInvalidParticipant
	}

	var refund domain.Refund
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		if err := guard(event, now); err != nil {
			return err
		}

		booking, err := s.bookings.Get(ctx, id, participant)
		if err != nil {
			return err
		}

		if err := s.vault.Release(ctx, id, participant, booking.AmountPaid, reason); err != nil {
			return fmt.Errorf("release escrow: %w", err)
		}

		if err := s.bookings.Delete(ctx, id, participant); err != nil {
			return err
		}

		refund = domain.Refund{
			EventID:     id,
			Participant: participant,
			Amount:      booking.AmountPaid,
			Reason:      reason,
			RefundedAt:  now,
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"event_id":    id,
			"participant": participant,
			"reason":      reason,
		}).Debug("Refund rejected")
		return nil, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"event_id":    id,
		"participant": participant,
		"amount":      refund.Amount,
		"reason":      reason,
	}).Info("Booking refunded")

	return &RefundResponse{
		EventID:     string(refund.EventID),
		Participant: refund.Participant.String(),
		Amount:      refund.Amount,
		Reason:      string(refund.Reason),
		RefundedAt:  refund.RefundedAt.Format(time.RFC3339),
	}, nil
}

// EscrowStatement is the organizer's view of an event's escrow.
type EscrowStatement struct {
	Held     int64
	Balances []domain.EscrowBalance
	Entries  []domain.LedgerEntry
}

// EscrowLedger reports what the vault holds for an event, per participant
// and in total, with the movements that produced it. Organizer only.
func (s *EscrowService) EscrowLedger(ctx context.Context, caller uuid.UUID, id domain.EventID) (*EscrowStatement, error) {
	statement := &EscrowStatement{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !event.IsOrganizer(caller) {
			return domain.ErrNotOrganizer
		}

		if statement.Balances, err = s.vault.Balances(ctx, id); err != nil {
			return err
		}
		statement.Entries, err = s.vault.Entries(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, b := range statement.Balances {
		if b.Held > math.MaxInt64-statement.Held {
			return nil, fmt.Errorf("total held on event %s exceeds int64", id)
		}
		statement.Held += b.Held
	}

	return statement, nil
}

func toEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:                     string(e.ID),
		Organizer:              e.Organizer.String(),
		Fee:                    e.Fee,
		StartTime:              e.StartTime.Format(time.RFC3339),
		CancellationWindowDays: e.CancellationWindowDays,
		CancellationDeadline:   e.CancellationDeadline().Format(time.RFC3339),
		AttendanceSecretHash:   e.AttendanceSecretHash.String(),
	}
}
