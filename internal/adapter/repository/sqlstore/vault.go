package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/ports"
)

// Vault keeps custody of escrowed value. Each participant of an event has
// an account row holding their deposit; every movement is also appended to
// escrow_ledger. Nothing on the write path aggregates over a whole event.
type Vault struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
	clock  ports.Clock
}

func NewVault(db *sqlx.DB, getter *trmsqlx.CtxGetter, clock ports.Clock) *Vault {
	return &Vault{db: db, getter: getter, clock: clock}
}

type ledgerRow struct {
	ID          string `db:"id"`
	EventID     string `db:"event_id"`
	Participant string `db:"participant"`
	Kind        string `db:"kind"`
	Amount      int64  `db:"amount"`
	Reason      string `db:"reason"`
	CreatedAt   int64  `db:"created_at"`
}

type accountRow struct {
	Participant string `db:"participant"`
	Held        int64  `db:"held"`
	PaidOut     int64  `db:"paid_out"`
}

func (v *Vault) Deposit(ctx context.Context, eventID domain.EventID, participant uuid.UUID, amount int64) error {
	if !domain.ValidAmount(amount) {
		return domain.ErrInvalidAmount
	}

	held, err := v.heldBy(ctx, eventID, participant)
	if err != nil {
		return err
	}
	if held > math.MaxInt64-amount {
		return fmt.Errorf("%w: participant %s already holds %d", domain.ErrEscrowOverflow, participant, held)
	}

	query := v.db.Rebind(`
	INSERT INTO escrow_accounts (event_id, participant, held, paid_out)
	VALUES (?, ?, ?, 0)
	ON CONFLICT (event_id, participant) DO UPDATE SET held = escrow_accounts.held + excluded.held
	`)

	_, err = v.getter.DefaultTrOrDB(ctx, v.db).ExecContext(ctx, query, string(eventID), participant.String(), amount)
	if err != nil {
		return fmt.Errorf("credit escrow account: %w", err)
	}

	return v.append(ctx, eventID, participant, domain.LedgerDeposit, amount, "booking")
}

// Release pays amount back out of the participant's own account. paid_out
// saturates instead of overflowing so a refund is never blocked by history.
func (v *Vault) Release(ctx context.Context, eventID domain.EventID, participant uuid.UUID, amount int64, reason domain.RefundReason) error {
	if !domain.ValidAmount(amount) {
		return domain.ErrInvalidAmount
	}

	query := v.db.Rebind(`
	UPDATE escrow_accounts
	SET held = held - ?,
		paid_out = CASE WHEN paid_out > ? THEN ? ELSE paid_out + ? END
	WHERE event_id = ? AND participant = ? AND held >= ?
	`)

	result, err := v.getter.DefaultTrOrDB(ctx, v.db).ExecContext(ctx, query,
		amount,
		int64(math.MaxInt64)-amount,
		int64(math.MaxInt64),
		amount,
		string(eventID),
		participant.String(),
		amount,
	)
	if err != nil {
		return fmt.Errorf("debit escrow account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: release of %d to %s on event %s", domain.ErrInsufficientEscrow, amount, participant, eventID)
	}

	return v.append(ctx, eventID, participant, domain.LedgerRelease, amount, string(reason))
}

func (v *Vault) heldBy(ctx context.Context, eventID domain.EventID, participant uuid.UUID) (int64, error) {
	query := v.db.Rebind(`SELECT held FROM escrow_accounts WHERE event_id = ? AND participant = ?`)

	var held int64
	err := sqlx.GetContext(ctx, v.getter.DefaultTrOrDB(ctx, v.db), &held, query, string(eventID), participant.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get escrow account: %w", err)
	}

	return held, nil
}

func (v *Vault) append(ctx context.Context, eventID domain.EventID, participant uuid.UUID, kind domain.LedgerEntryKind, amount int64, reason string) error {
	query := v.db.Rebind(`
	INSERT INTO escrow_ledger (id, event_id, participant, kind, amount, reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := v.getter.DefaultTrOrDB(ctx, v.db).ExecContext(ctx, query,
		uuid.NewString(),
		string(eventID),
		participant.String(),
		string(kind),
		amount,
		reason,
		v.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("append %s ledger entry: %w", kind, err)
	}

	return nil
}

// Balances lists every account opened on the event, ordered by participant.
func (v *Vault) Balances(ctx context.Context, eventID domain.EventID) ([]domain.EscrowBalance, error) {
	query := v.db.Rebind(`
	SELECT participant, held, paid_out
	FROM escrow_accounts
	WHERE event_id = ?
	ORDER BY participant
	`)

	var rows []accountRow
	if err := sqlx.SelectContext(ctx, v.getter.DefaultTrOrDB(ctx, v.db), &rows, query, string(eventID)); err != nil {
		return nil, fmt.Errorf("list escrow accounts: %w", err)
	}

	balances := make([]domain.EscrowBalance, 0, len(rows))
	for _, row := range rows {
		participant, err := uuid.Parse(row.Participant)
		if err != nil {
			return nil, fmt.Errorf("escrow account participant: %w", err)
		}
		balances = append(balances, domain.EscrowBalance{
			Participant: participant,
			Held:        row.Held,
			PaidOut:     row.PaidOut,
		})
	}

	return balances, nil
}

func (v *Vault) Entries(ctx context.Context, eventID domain.EventID) ([]domain.LedgerEntry, error) {
	query := v.db.Rebind(`
	SELECT id, event_id, participant, kind, amount, reason, created_at
	FROM escrow_ledger
	WHERE event_id = ?
	ORDER BY seq
	`)

	var rows []ledgerRow
	if err := sqlx.SelectContext(ctx, v.getter.DefaultTrOrDB(ctx, v.db), &rows, query, string(eventID)); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("ledger entry id: %w", err)
		}
		participant, err := uuid.Parse(row.Participant)
		if err != nil {
			return nil, fmt.Errorf("ledger entry %s participant: %w", row.ID, err)
		}

		entries = append(entries, domain.LedgerEntry{
			ID:          id,
			EventID:     domain.EventID(row.EventID),
			Participant: participant,
			Kind:        domain.LedgerEntryKind(row.Kind),
			Amount:      row.Amount,
			Reason:      row.Reason,
			CreatedAt:   time.Unix(row.CreatedAt, 0).UTC(),
		})
	}

	return entries, nil
}
