package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type ReservationRepository interface {
	Save(ctx context.Context, reservation Reservation, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error)
	UpdateStatus(ctx context.Context, ID string, fromStatus, toStatus string, tx *sql.Tx) (bool, error)
}

type reservationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewReservationRepository(logger *logrus.Logger, db *sql.DB) ReservationRepository {
	return &reservationRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements ReservationRepository.
func (r *reservationRepository) Save(ctx context.Context, reservation Reservation, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO inventory_reservation
		(
			id, tier_id, order_id, quantity, status, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reservation's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		reservation.ID, reservation.TierID, reservation.OrderID, reservation.Quantity,
		reservation.Status, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving reservation's properties")
	}

	return nil
}

// FindByID implements ReservationRepository.
func (r *reservationRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Reservation, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, tier_id, order_id, quantity, status, created_at, updated_at
		FROM inventory_reservation
		WHERE
			id = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting reservation's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Reservation
	err = row.Scan(
		&data.ID, &data.TierID, &data.OrderID, &data.Quantity,
		&data.Status, &data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Reservation{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("reservation with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting reservation's properties")
	}

	return data, nil
}

// UpdateStatus implements ReservationRepository. The transition is
// conditional on the current status; it reports whether the row actually
// flipped so callers can keep release idempotent.
func (r *reservationRepository) UpdateStatus(ctx context.Context, ID string, fromStatus, toStatus string, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE inventory_reservation
		SET
			status = $1,
			updated_at = now()
		WHERE
			id = $2
		AND
			status = $3
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating reservation's status")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, toStatus, ID, fromStatus)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating reservation's status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating reservation's status")
	}

	return affected > 0, nil
}
