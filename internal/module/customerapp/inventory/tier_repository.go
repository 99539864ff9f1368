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

type TierRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Tier, error)
	FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]Tier, error)
	IncrementSoldIfAvailable(ctx context.Context, ID string, quantity int64, tx *sql.Tx) (bool, error)
	DecrementSold(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type tierRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTierRepository(logger *logrus.Logger, db *sql.DB) TierRepository {
	return &tierRepository{
		logger: logger,
		db:     db,
	}
}

const tierColumns = `id, event_id, name, price, currency, capacity, sold, sale_start, sale_end, active, created_at, updated_at`

// FindByID implements TierRepository.
func (r *tierRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Tier, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM event_tier
		WHERE
			id = $1
		LIMIT 1
	`, tierColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Tier{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting tier's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID)

	var data Tier
	err = row.Scan(
		&data.ID, &data.EventID, &data.Name, &data.Price, &data.Currency, &data.Capacity,
		&data.Sold, &data.SaleStart, &data.SaleEnd, &data.Active, &data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Tier{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("tier with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Tier{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting tier's properties")
	}

	return data, nil
}

// FindManyByEventID implements TierRepository.
func (r *tierRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]Tier, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM event_tier
		WHERE
			event_id = $1
		ORDER BY name
	`, tierColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of tier's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of tier's properties")
	}
	defer rows.Close()

	var data = make([]Tier, 0)
	for rows.Next() {
		var t Tier
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.Name, &t.Price, &t.Currency, &t.Capacity,
			&t.Sold, &t.SaleStart, &t.SaleEnd, &t.Active, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of tier's properties")
		}

		data = append(data, t)
	}

	return data, nil
}

// IncrementSoldIfAvailable implements TierRepository. The increment is a
// single conditional statement so two buyers of the last unit cannot both
// pass a read-then-write check.
func (r *tierRepository) IncrementSoldIfAvailable(ctx context.Context, ID string, quantity int64, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event_tier
		SET
			sold = sold + $1,
			updated_at = now()
		WHERE
			id = $2
		AND
			sold + $1 <= capacity
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing tier's sold counter")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, quantity, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing tier's sold counter")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while incrementing tier's sold counter")
	}

	return affected > 0, nil
}

// DecrementSold implements TierRepository.
func (r *tierRepository) DecrementSold(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event_tier
		SET
			sold = sold - $1,
			updated_at = now()
		WHERE
			id = $2
		AND
			sold - $1 >= 0
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decrementing tier's sold counter")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, quantity, ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while decrementing tier's sold counter")
	}

	return nil
}
