//go:generate mockery --all --output ./mocks --outpkg mocks

package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/event_escrow/internal/core/domain"
)

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error)
	ListIDs(ctx context.Context) ([]domain.EventID, error)
}

type BookingRepository interface {
	Get(ctx context.Context, eventID domain.EventID, participant uuid.UUID) (*domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) error
	Delete(ctx context.Context, eventID domain.EventID, participant uuid.UUID) error
	ListByEvent(ctx context.Context, eventID domain.EventID) ([]domain.Booking, error)
}

// Vault holds the value escrowed for events and releases it back to
// participants. Balances are kept per participant: a release only ever
// looks at the participant's own deposit.
type Vault interface {
	Deposit(ctx context.Context, eventID domain.EventID, participant uuid.UUID, amount int64) error
	Release(ctx context.Context, eventID domain.EventID, participant uuid.UUID, amount int64, reason domain.RefundReason) error
	Balances(ctx context.Context, eventID domain.EventID) ([]domain.EscrowBalance, error)
	Entries(ctx context.Context, eventID domain.EventID) ([]domain.LedgerEntry, error)
}

// Transactor runs fn as one all-or-nothing unit. Repositories and the vault
// must pick the transaction up from the context passed to fn.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Clock interface {
	Now() time.Time
}
