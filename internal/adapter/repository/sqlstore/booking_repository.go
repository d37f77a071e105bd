package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/srgjo27/event_escrow/internal/core/domain"
)

type BookingRepository struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewBookingRepository(db *sqlx.DB, getter *trmsqlx.CtxGetter) *BookingRepository {
	return &BookingRepository{db: db, getter: getter}
}

type bookingRow struct {
	EventID     string `db:"event_id"`
	Participant string `db:"participant"`
	AmountPaid  int64  `db:"amount_paid"`
	BookedAt    int64  `db:"booked_at"`
}

func (r *BookingRepository) Get(ctx context.Context, eventID domain.EventID, participant uuid.UUID) (*domain.Booking, error) {
	query := r.db.Rebind(`
	SELECT event_id, participant, amount_paid, booked_at
	FROM bookings
	WHERE event_id = ? AND participant = ?
	`)

	var row bookingRow
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, string(eventID), participant.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &domain.Booking{
		EventID:     domain.EventID(row.EventID),
		Participant: participant,
		AmountPaid:  row.AmountPaid,
		BookedAt:    time.Unix(row.BookedAt, 0).UTC(),
	}, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := r.db.Rebind(`
	INSERT INTO bookings (event_id, participant, amount_paid, booked_at)
	VALUES (?, ?, ?, ?)
	`)

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		string(booking.EventID),
		booking.Participant.String(),
		booking.AmountPaid,
		booking.BookedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyBooked
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

// Delete removes the booking and fails if there was none, so two concurrent
// refunds cannot both drain it.
func (r *BookingRepository) Delete(ctx context.Context, eventID domain.EventID, participant uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM bookings WHERE event_id = ? AND participant = ?`)

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query, string(eventID), participant.String())
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrBookingNotFound
	}

	return nil
}

func (r *BookingRepository) ListByEvent(ctx context.Context, eventID domain.EventID) ([]domain.Booking, error) {
	query := r.db.Rebind(`
	SELECT event_id, participant, amount_paid, booked_at
	FROM bookings
	WHERE event_id = ?
	ORDER BY participant
	`)

	var rows []bookingRow
	if err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &rows, query, string(eventID)); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	bookings := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		participant, err := uuid.Parse(row.Participant)
		if err != nil {
			return nil, fmt.Errorf("booking participant: %w", err)
		}
		bookings = append(bookings, domain.Booking{
			EventID:     domain.EventID(row.EventID),
			Participant: participant,
			AmountPaid:  row.AmountPaid,
			BookedAt:    time.Unix(row.BookedAt, 0).UTC(),
		})
	}

	return bookings, nil
}
