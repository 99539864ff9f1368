package reporting

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type ReportingRepository interface {
	GetRevenueByEventID(ctx context.Context, eventID string) (RevenueReport, error)
	GetTierInventoryByEventID(ctx context.Context, eventID string) ([]TierInventoryReport, error)
	GetTicketStatusCountsByEventID(ctx context.Context, eventID string) ([]TicketStatusReport, error)
}

type reportingRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewReportingRepository(logger *logrus.Logger, db *sql.DB) ReportingRepository {
	return &reportingRepository{
		logger: logger,
		db:     db,
	}
}

// GetRevenueByEventID implements ReportingRepository. Revenue only counts
// orders that stayed COMPLETED; refunded orders drop out of the sum.
func (r *reportingRepository) GetRevenueByEventID(ctx context.Context, eventID string) (RevenueReport, error) {
	query := `
		SELECT
			count(id),
			COALESCE(SUM(total_amount), 0)
		FROM ticket_order
		WHERE
			event_id = $1
			AND status = 'COMPLETED'
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return RevenueReport{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting revenue report")
	}
	defer stmt.Close()

	report := RevenueReport{EventID: eventID}
	if err := stmt.QueryRowContext(ctx, eventID).Scan(&report.OrderCount, &report.Revenue); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return RevenueReport{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting revenue report")
	}

	return report, nil
}

// GetTierInventoryByEventID implements ReportingRepository.
func (r *reportingRepository) GetTierInventoryByEventID(ctx context.Context, eventID string) ([]TierInventoryReport, error) {
	query := `
		SELECT
			id,
			name,
			capacity,
			sold,
			capacity - sold
		FROM tier
		WHERE
			event_id = $1
		ORDER BY name ASC
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting tier inventory report")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting tier inventory report")
	}
	defer rows.Close()

	var data = make([]TierInventoryReport, 0)
	for rows.Next() {
		var report TierInventoryReport
		if err := rows.Scan(&report.TierID, &report.TierName, &report.Capacity, &report.Sold, &report.Remaining); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting tier inventory report")
		}

		data = append(data, report)
	}

	return data, nil
}

// GetTicketStatusCountsByEventID implements ReportingRepository.
func (r *reportingRepository) GetTicketStatusCountsByEventID(ctx context.Context, eventID string) ([]TicketStatusReport, error) {
	query := `
		SELECT
			status,
			count(id)
		FROM ticket
		WHERE
			event_id = $1
		GROUP BY status
		ORDER BY status ASC
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket status report")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket status report")
	}
	defer rows.Close()

	var data = make([]TicketStatusReport, 0)
	for rows.Next() {
		var report TicketStatusReport
		if err := rows.Scan(&report.Status, &report.Count); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket status report")
		}

		data = append(data, report)
	}

	return data, nil
}
