package inventory

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// Ledger governs tier inventory. Reserve claims seats with a single
// conditional increment, Release hands them back exactly once, Commit
// marks the claim as consumed by issued tickets.
type Ledger interface {
	Reserve(ctx context.Context, tierID, orderID string, quantity int64, tx *sql.Tx) (Reservation, error)
	Release(ctx context.Context, reservationID string, tx *sql.Tx) error
	Commit(ctx context.Context, reservationID string, tx *sql.Tx) error
}

type ledger struct {
	logger                *logrus.Logger
	tierRepository        TierRepository
	reservationRepository ReservationRepository
}

func NewLedger(logger *logrus.Logger, tierRepository TierRepository, reservationRepository ReservationRepository) Ledger {
	return &ledger{
		logger:                logger,
		tierRepository:        tierRepository,
		reservationRepository: reservationRepository,
	}
}

// Reserve implements Ledger.
func (l *ledger) Reserve(ctx context.Context, tierID, orderID string, quantity int64, tx *sql.Tx) (Reservation, error) {
	ok, err := l.tierRepository.IncrementSoldIfAvailable(ctx, tierID, quantity, tx)
	if err != nil {
		return Reservation{}, err
	}

	if !ok {
		return Reservation{}, errors.New(http.StatusConflict, status.OUT_OF_STOCK, "the requested quantity exceeds the tier's remaining capacity")
	}

	now := time.Now()
	reservation := Reservation{
		ID:        uuid.NewString(),
		TierID:    tierID,
		OrderID:   orderID,
		Quantity:  quantity,
		Status:    ReservationStatusHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.reservationRepository.Save(ctx, reservation, tx); err != nil {
		return Reservation{}, err
	}

	return reservation, nil
}

// Release implements Ledger. The sold counter is only decremented when the
// reservation actually flips from HELD, which makes repeated release a
// no-op.
func (l *ledger) Release(ctx context.Context, reservationID string, tx *sql.Tx) error {
	reservation, err := l.reservationRepository.FindByID(ctx, reservationID, tx)
	if err != nil {
		return err
	}

	flipped, err := l.reservationRepository.UpdateStatus(ctx, reservationID, ReservationStatusHeld, ReservationStatusReleased, tx)
	if err != nil {
		return err
	}

	if !flipped {
		return nil
	}

	return l.tierRepository.DecrementSold(ctx, reservation.TierID, reservation.Quantity, tx)
}

// Commit implements Ledger. Seats were already counted at reserve time, so
// committing is a status marker only.
func (l *ledger) Commit(ctx context.Context, reservationID string, tx *sql.Tx) error {
	_, err := l.reservationRepository.UpdateStatus(ctx, reservationID, ReservationStatusHeld, ReservationStatusCommitted, tx)
	return err
}
