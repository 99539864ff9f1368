package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/marketplace"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type ReportingUseCase interface {
	GetEventReport(ctx context.Context, eventID string) (EventReportResponse, error)
}

type reportingUseCase struct {
	logger              *logrus.Logger
	timeout             time.Duration
	reportingRepository ReportingRepository
	listingRepository   marketplace.ListingRepository
}

type ReportingUseCaseProperty struct {
	Logger              *logrus.Logger
	Timeout             time.Duration
	ReportingRepository ReportingRepository
	ListingRepository   marketplace.ListingRepository
}

func NewReportingUseCase(props ReportingUseCaseProperty) ReportingUseCase {
	return &reportingUseCase{
		logger:              props.Logger,
		timeout:             props.Timeout,
		reportingRepository: props.ReportingRepository,
		listingRepository:   props.ListingRepository,
	}
}

// GetEventReport implements ReportingUseCase.
func (u *reportingUseCase) GetEventReport(ctx context.Context, eventID string) (EventReportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	admin, err := session.GetAdminFromCtx(ctx)
	if err != nil {
		return EventReportResponse{}, err
	}

	if !admin.IsStaffForEvent(eventID) {
		return EventReportResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "the requesting account is not assigned to this event")
	}

	revenue, err := u.reportingRepository.GetRevenueByEventID(ctx, eventID)
	if err != nil {
		return EventReportResponse{}, err
	}

	inventory, err := u.reportingRepository.GetTierInventoryByEventID(ctx, eventID)
	if err != nil {
		return EventReportResponse{}, err
	}

	ticketStatuses, err := u.reportingRepository.GetTicketStatusCountsByEventID(ctx, eventID)
	if err != nil {
		return EventReportResponse{}, err
	}

	resale, err := u.listingRepository.GetStats(ctx, eventID, nil)
	if err != nil {
		return EventReportResponse{}, err
	}

	resp := EventReportResponse{}
	resp.Populate(revenue, inventory, ticketStatuses, resale)

	return resp, nil
}
