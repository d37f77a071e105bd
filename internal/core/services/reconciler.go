package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/srgjo27/event_escrow/internal/core/domain"
	"github.com/srgjo27/event_escrow/internal/core/ports"
	"github.com/srgjo27/event_escrow/internal/platform/logging"
)

// Discrepancy is a participant whose booking does not match what the vault
// holds for them. Booked is zero when the vault holds value for someone
// without a booking.
type Discrepancy struct {
	EventID     domain.EventID
	Participant uuid.UUID
	Booked      int64
	VaultHeld   int64
}

// Reconciler audits the escrow invariant. It only reports; it never moves
// funds.
type Reconciler struct {
	events   ports.EventRepository
	bookings ports.BookingRepository
	vault    ports.Vault
	tx       ports.Transactor
}

func NewReconciler(events ports.EventRepository, bookings ports.BookingRepository, vault ports.Vault, tx ports.Transactor) *Reconciler {
	return &Reconciler{events: events, bookings: bookings, vault: vault, tx: tx}
}

func (r *Reconciler) RunBackgroundReconciliation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.WithField("interval", interval).Info("Escrow reconciliation started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Escrow reconciliation stopped")
			return
		case <-ticker.C:
			if _, err := r.Reconcile(ctx); err != nil {
				logging.FromContext(ctx).WithError(err).Error("Escrow reconciliation failed")
			}
		}
	}
}

// Reconcile compares every active booking with the participant's vault
// account and returns the mismatches.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	ids, err := r.events.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	var found []Discrepancy
	for _, id := range ids {
		var bookings []domain.Booking
		var balances []domain.EscrowBalance
		err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			if bookings, err = r.bookings.ListByEvent(ctx, id); err != nil {
				return err
			}
			balances, err = r.vault.Balances(ctx, id)
			return err
		})
		if err != nil {
			return found, fmt.Errorf("reconcile event %s: %w", id, err)
		}

		for _, d := range compareEscrow(id, bookings, balances) {
			logging.FromContext(ctx).WithFields(logrus.Fields{
				"event_id":    d.EventID,
				"participant": d.Participant,
				"booked":      d.Booked,
				"vault_held":  d.VaultHeld,
			}).Error("Escrow mismatch")
			found = append(found, d)
		}
	}

	return found, nil
}

func compareEscrow(id domain.EventID, bookings []domain.Booking, balances []domain.EscrowBalance) []Discrepancy {
	held := make(map[uuid.UUID]int64, len(balances))
	for _, b := range balances {
		held[b.Participant] = b.Held
	}

	var found []Discrepancy
	for _, b := range bookings {
		if h := held[b.Participant]; h != b.AmountPaid {
			found = append(found, Discrepancy{EventID: id, Participant: b.Participant, Booked: b.AmountPaid, VaultHeld: h})
		}
		delete(held, b.Participant)
	}

	for _, b := range balances {
		if h, ok := held[b.Participant]; ok && h != 0 {
			found = append(found, Discrepancy{EventID: id, Participant: b.Participant, VaultHeld: h})
		}
	}

	return found
}
