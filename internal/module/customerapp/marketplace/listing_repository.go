package marketplace

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type ListingRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, l Listing, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Listing, error)
	FindOpenByTicketID(ctx context.Context, ticketID string, tx *sql.Tx) (Listing, error)
	FindMany(ctx context.Context, filter FindManyFilter, tx *sql.Tx) ([]Listing, error)
	PurchaseIfActive(ctx context.Context, ID string, buyerID int64, finalPrice float64, soldAt time.Time, tx *sql.Tx) (bool, error)
	CancelIfActive(ctx context.Context, ID string, tx *sql.Tx) (bool, error)
	GetStats(ctx context.Context, eventID string, tx *sql.Tx) (ListingStats, error)
}

type FindManyFilter struct {
	EventID  string
	SellerID int64
	Status   string
	Offset   int64
	Limit    int64
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type listingRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewListingRepository(logger *logrus.Logger, db *sql.DB) ListingRepository {
	return &listingRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements ListingRepository.
func (r *listingRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements ListingRepository.
func (r *listingRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements ListingRepository.
func (r *listingRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const listingColumns = `
	id, seller_id, buyer_id, ticket_id, event_id, asking_price, currency,
	status, final_price, expires_at, sold_at, created_at, updated_at`

func scanListing(row interface{ Scan(...interface{}) error }) (Listing, error) {
	var l Listing
	var buyerID sql.NullInt64
	var finalPrice sql.NullFloat64
	var expiresAt, soldAt sql.NullTime

	err := row.Scan(
		&l.ID, &l.SellerID, &buyerID, &l.TicketID, &l.EventID, &l.AskingPrice, &l.Currency,
		&l.Status, &finalPrice, &expiresAt, &soldAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return Listing{}, err
	}

	if buyerID.Valid {
		l.BuyerID = &buyerID.Int64
	}
	if finalPrice.Valid {
		l.FinalPrice = &finalPrice.Float64
	}
	if expiresAt.Valid {
		l.ExpiresAt = &expiresAt.Time
	}
	if soldAt.Valid {
		l.SoldAt = &soldAt.Time
	}

	return l, nil
}

// Save implements ListingRepository.
func (r *listingRepository) Save(ctx context.Context, l Listing, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO listing
		(
			id, seller_id, buyer_id, ticket_id, event_id, asking_price, currency,
			status, final_price, expires_at, sold_at, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving listing's properties")
	}
	defer stmt.Close()

	var buyerID sql.NullInt64
	var finalPrice sql.NullFloat64
	var expiresAt, soldAt sql.NullTime

	if l.BuyerID != nil {
		buyerID = sql.NullInt64{Int64: *l.BuyerID, Valid: true}
	}
	if l.FinalPrice != nil {
		finalPrice = sql.NullFloat64{Float64: *l.FinalPrice, Valid: true}
	}
	if l.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *l.ExpiresAt, Valid: true}
	}
	if l.SoldAt != nil {
		soldAt = sql.NullTime{Time: *l.SoldAt, Valid: true}
	}

	_, err = stmt.ExecContext(ctx,
		l.ID, l.SellerID, buyerID, l.TicketID, l.EventID, l.AskingPrice, l.Currency,
		l.Status, finalPrice, expiresAt, soldAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving listing's properties")
	}

	return nil
}

func (r *listingRepository) findOne(ctx context.Context, where string, arg interface{}, tx *sql.Tx) (Listing, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM listing
		WHERE
			%s
		LIMIT 1
	`, listingColumns, where)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Listing{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting listing's properties")
	}
	defer stmt.Close()

	l, err := scanListing(stmt.QueryRowContext(ctx, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return Listing{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("listing with %s '%v' is not found", where, arg))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Listing{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting listing's properties")
	}

	return l, nil
}

// FindByID implements ListingRepository.
func (r *listingRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Listing, error) {
	return r.findOne(ctx, "id = $1", ID, tx)
}

// FindOpenByTicketID implements ListingRepository. Only one ACTIVE listing
// may exist per ticket at a time.
func (r *listingRepository) FindOpenByTicketID(ctx context.Context, ticketID string, tx *sql.Tx) (Listing, error) {
	return r.findOne(ctx, "ticket_id = $1 AND status = 'ACTIVE'", ticketID, tx)
}

// FindMany implements ListingRepository.
func (r *listingRepository) FindMany(ctx context.Context, filter FindManyFilter, tx *sql.Tx) ([]Listing, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	where := "1 = 1"
	args := []interface{}{}

	if filter.EventID != "" {
		args = append(args, filter.EventID)
		where += fmt.Sprintf(" AND event_id = $%d", len(args))
	}
	if filter.SellerID != 0 {
		args = append(args, filter.SellerID)
		where += fmt.Sprintf(" AND seller_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, filter.Offset)
	offsetPlaceholder := len(args)
	args = append(args, filter.Limit)
	limitPlaceholder := len(args)

	query := fmt.Sprintf(`
		SELECT %s
		FROM listing
		WHERE
			%s
		ORDER BY created_at DESC
		OFFSET $%d
		LIMIT $%d
	`, listingColumns, where, offsetPlaceholder, limitPlaceholder)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of listing's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of listing's properties")
	}
	defer rows.Close()

	var data = make([]Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of listing's properties")
		}

		data = append(data, l)
	}

	return data, nil
}

// PurchaseIfActive implements ListingRepository. The conditional update is
// the settlement point: the first buyer to commit wins, every later
// attempt reports zero affected rows.
func (r *listingRepository) PurchaseIfActive(ctx context.Context, ID string, buyerID int64, finalPrice float64, soldAt time.Time, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE listing
		SET
			status = 'SOLD',
			buyer_id = $2,
			final_price = $3,
			sold_at = $4,
			updated_at = $4
		WHERE
			id = $1
			AND status = 'ACTIVE'
			AND (expires_at IS NULL OR expires_at > $4)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while purchasing listing")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID, buyerID, finalPrice, soldAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while purchasing listing")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while purchasing listing")
	}

	return affected > 0, nil
}

// CancelIfActive implements ListingRepository.
func (r *listingRepository) CancelIfActive(ctx context.Context, ID string, tx *sql.Tx) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE listing
		SET
			status = 'CANCELLED',
			updated_at = now()
		WHERE
			id = $1
			AND status = 'ACTIVE'
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling listing")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling listing")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while cancelling listing")
	}

	return affected > 0, nil
}

// GetStats implements ListingRepository.
func (r *listingRepository) GetStats(ctx context.Context, eventID string, tx *sql.Tx) (ListingStats, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			count(id),
			count(id) FILTER (WHERE status = 'SOLD'),
			COALESCE(SUM(final_price) FILTER (WHERE status = 'SOLD'), 0)
		FROM listing
		WHERE
			event_id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return ListingStats{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting listing's statistics")
	}
	defer stmt.Close()

	var stats ListingStats
	if err := stmt.QueryRowContext(ctx, eventID).Scan(&stats.TotalListings, &stats.SoldListings, &stats.Volume); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return ListingStats{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting listing's statistics")
	}

	return stats, nil
}
