package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// ErrDuplicateNumber marks a unique violation on the ticket number. The
// issuer regenerates the colliding ticket and retries instead of failing
// the batch.
var ErrDuplicateNumber = errors.New(http.StatusConflict, status.CONFLICT, "ticket number already exists")

type TicketRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, t Ticket, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error)
	FindByNumber(ctx context.Context, number string, tx *sql.Tx) (Ticket, error)
	FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Ticket, error)
	FindManyByHolderID(ctx context.Context, holderID int64, tx *sql.Tx) ([]Ticket, error)
	Update(ctx context.Context, ID string, t Ticket, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketRepository(logger *logrus.Logger, db *sql.DB) TicketRepository {
	return &ticketRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements TicketRepository.
func (r *ticketRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements TicketRepository.
func (r *ticketRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements TicketRepository.
func (r *ticketRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const ticketColumns = `
	id, number, verification_payload, order_id, holder_id, event_id, tier,
	price, service_fee, currency, status, attendee_name, attendee_email,
	check_in_at, transferred_to, created_at, updated_at`

func scanTicket(row interface{ Scan(...interface{}) error }) (Ticket, error) {
	var t Ticket
	var attendeeName, attendeeEmail, transferredTo sql.NullString
	var checkInAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Number, &t.VerificationPayload, &t.OrderID, &t.HolderID, &t.EventID, &t.Tier,
		&t.Price, &t.ServiceFee, &t.Currency, &t.Status, &attendeeName, &attendeeEmail,
		&checkInAt, &transferredTo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Ticket{}, err
	}

	if attendeeName.Valid {
		t.AttendeeName = &attendeeName.String
	}
	if attendeeEmail.Valid {
		t.AttendeeEmail = &attendeeEmail.String
	}
	if checkInAt.Valid {
		t.CheckInAt = &checkInAt.Time
	}
	if transferredTo.Valid {
		t.TransferredTo = &transferredTo.String
	}

	return t, nil
}

// Save implements TicketRepository. A unique violation on the ticket
// number column is surfaced as ErrDuplicateNumber.
func (r *ticketRepository) Save(ctx context.Context, t Ticket, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO ticket
		(
			id, number, verification_payload, order_id, holder_id, event_id, tier,
			price, service_fee, currency, status, attendee_name, attendee_email,
			check_in_at, transferred_to, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket's properties")
	}
	defer stmt.Close()

	var attendeeName, attendeeEmail, transferredTo sql.NullString
	var checkInAt sql.NullTime

	if t.AttendeeName != nil {
		attendeeName = sql.NullString{String: *t.AttendeeName, Valid: true}
	}
	if t.AttendeeEmail != nil {
		attendeeEmail = sql.NullString{String: *t.AttendeeEmail, Valid: true}
	}
	if t.CheckInAt != nil {
		checkInAt = sql.NullTime{Time: *t.CheckInAt, Valid: true}
	}
	if t.TransferredTo != nil {
		transferredTo = sql.NullString{String: *t.TransferredTo, Valid: true}
	}

	_, err = stmt.ExecContext(ctx,
		t.ID, t.Number, t.VerificationPayload, t.OrderID, t.HolderID, t.EventID, t.Tier,
		t.Price, t.ServiceFee, t.Currency, t.Status, attendeeName, attendeeEmail,
		checkInAt, transferredTo, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicateNumber
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket's properties")
	}

	return nil
}

// FindByID implements TicketRepository.
func (r *ticketRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	return r.findByID(ctx, ID, "LIMIT 1", tx)
}

// FindByIDForUpdate implements TicketRepository.
func (r *ticketRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	return r.findByID(ctx, ID, "FOR UPDATE", tx)
}

func (r *ticketRepository) findByID(ctx context.Context, ID, suffix string, tx *sql.Tx) (Ticket, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket
		WHERE
			id = $1
		%s
	`, ticketColumns, suffix)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}
	defer stmt.Close()

	t, err := scanTicket(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Ticket{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}

	return t, nil
}

// FindByNumber implements TicketRepository.
func (r *ticketRepository) FindByNumber(ctx context.Context, number string, tx *sql.Tx) (Ticket, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket
		WHERE
			number = $1
		LIMIT 1
	`, ticketColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}
	defer stmt.Close()

	t, err := scanTicket(stmt.QueryRowContext(ctx, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return Ticket{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with number '%s' is not found", number))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Ticket{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket's properties")
	}

	return t, nil
}

// FindManyByOrderID implements TicketRepository.
func (r *ticketRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Ticket, error) {
	return r.findMany(ctx, "order_id = $1", orderID, tx)
}

// FindManyByHolderID implements TicketRepository.
func (r *ticketRepository) FindManyByHolderID(ctx context.Context, holderID int64, tx *sql.Tx) ([]Ticket, error) {
	return r.findMany(ctx, "holder_id = $1", holderID, tx)
}

func (r *ticketRepository) findMany(ctx context.Context, where string, arg interface{}, tx *sql.Tx) ([]Ticket, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket
		WHERE
			%s
		ORDER BY created_at DESC
	`, ticketColumns, where)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, arg)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
	}
	defer rows.Close()

	var data = make([]Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket's properties")
		}

		data = append(data, t)
	}

	return data, nil
}

// Update implements TicketRepository.
func (r *ticketRepository) Update(ctx context.Context, ID string, t Ticket, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket
		SET
			status = $1,
			attendee_name = $2,
			attendee_email = $3,
			check_in_at = $4,
			transferred_to = $5,
			updated_at = $6
		WHERE id = $7
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's properties")
	}
	defer stmt.Close()

	var attendeeName, attendeeEmail, transferredTo sql.NullString
	var checkInAt sql.NullTime

	if t.AttendeeName != nil {
		attendeeName = sql.NullString{String: *t.AttendeeName, Valid: true}
	}
	if t.AttendeeEmail != nil {
		attendeeEmail = sql.NullString{String: *t.AttendeeEmail, Valid: true}
	}
	if t.CheckInAt != nil {
		checkInAt = sql.NullTime{Time: *t.CheckInAt, Valid: true}
	}
	if t.TransferredTo != nil {
		transferredTo = sql.NullString{String: *t.TransferredTo, Valid: true}
	}

	_, err = stmt.ExecContext(ctx, t.Status, attendeeName, attendeeEmail, checkInAt, transferredTo, t.UpdatedAt, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating ticket's properties")
	}

	return nil
}
