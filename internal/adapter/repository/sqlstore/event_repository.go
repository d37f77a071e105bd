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

type EventRepository struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewEventRepository(db *sqlx.DB, getter *trmsqlx.CtxGetter) *EventRepository {
	return &EventRepository{db: db, getter: getter}
}

type eventRow struct {
	ID                     string `db:"id"`
	Organizer              string `db:"organizer"`
	Fee                    int64  `db:"fee"`
	StartTime              int64  `db:"start_time"`
	CancellationWindowDays int    `db:"cancellation_window_days"`
	AttendanceSecretHash   string `db:"attendance_secret_hash"`
	CreatedAt              int64  `db:"created_at"`
}

func (r eventRow) toDomain() (*domain.Event, error) {
	organizer, err := uuid.Parse(r.Organizer)
	if err != nil {
		return nil, fmt.Errorf("event %s: organizer: %w", r.ID, err)
	}
	hash, err := domain.ParseSecretHash(r.AttendanceSecretHash)
	if err != nil {
		return nil, fmt.Errorf("event %s: secret hash: %w", r.ID, err)
	}

	return &domain.Event{
		ID:                     domain.EventID(r.ID),
		Organizer:              organizer,
		Fee:                    r.Fee,
		StartTime:              time.Unix(r.StartTime, 0).UTC(),
		CancellationWindowDays: r.CancellationWindowDays,
		AttendanceSecretHash:   hash,
		CreatedAt:              time.Unix(r.CreatedAt, 0).UTC(),
	}, nil
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := r.db.Rebind(`
	INSERT INTO events (id, organizer, fee, start_time, cancellation_window_days, attendance_secret_hash, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		string(event.ID),
		event.Organizer.String(),
		event.Fee,
		event.StartTime.Unix(),
		event.CancellationWindowDays,
		event.AttendanceSecretHash.String(),
		event.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEventExists
		}
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	query := r.db.Rebind(`
	SELECT id, organizer, fee, start_time, cancellation_window_days, attendance_secret_hash, created_at
	FROM events
	WHERE id = ?
	`)

	var row eventRow
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	return row.toDomain()
}

func (r *EventRepository) ListIDs(ctx context.Context) ([]domain.EventID, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &ids, `SELECT id FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]domain.EventID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.EventID(id))
	}
	return out, nil
}
