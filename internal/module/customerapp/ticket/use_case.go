package ticket

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type TicketUseCase interface {
	GetManyTicket(ctx context.Context) (GetManyTicketResponse, error)
	CheckIn(ctx context.Context, req CheckInRequest) (TicketResponse, error)
	Cancel(ctx context.Context, ticketID string) (TicketResponse, error)
	Transfer(ctx context.Context, req TransferRequest) (TicketResponse, error)
	CancelManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Ticket, error)
}

type ticketUseCase struct {
	logger           *logrus.Logger
	timeout          time.Duration
	ticketRepository TicketRepository
	publisher        pubsub.Publisher
}

type TicketUseCaseProperty struct {
	Logger           *logrus.Logger
	Timeout          time.Duration
	TicketRepository TicketRepository
	Publisher        pubsub.Publisher
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	return &ticketUseCase{
		logger:           props.Logger,
		timeout:          props.Timeout,
		ticketRepository: props.TicketRepository,
		publisher:        props.Publisher,
	}
}

// GetManyTicket implements TicketUseCase.
func (u *ticketUseCase) GetManyTicket(ctx context.Context) (GetManyTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	tickets, err := u.ticketRepository.FindManyByHolderID(ctx, acc.ID, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyTicketResponse, len(tickets))
	for k, t := range tickets {
		resp[k].PopulateFromEntity(t)
	}

	return resp, nil
}

func stateConflict(action, current string) error {
	return errors.New(http.StatusConflict, status.STATE_CONFLICT, fmt.Sprintf("ticket cannot be %s, its current status is '%s'", action, strings.ToLower(current)))
}

// CheckIn implements TicketUseCase. A second check-in on a used ticket is
// rejected rather than absorbed; duplicate presentation signals fraud to
// the gate staff.
func (u *ticketUseCase) CheckIn(ctx context.Context, req CheckInRequest) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	admin, err := session.GetAdminFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByNumber(ctx, req.TicketNumber, nil)
	if err != nil {
		return TicketResponse{}, err
	}

	if !admin.IsStaffForEvent(t.EventID) {
		return TicketResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "staff member is not assigned to this event")
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err = u.ticketRepository.FindByIDForUpdate(ctx, t.ID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if t.Status != StatusActive {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, stateConflict("checked in", t.Status)
	}

	now := time.Now()
	t.Status = StatusUsed
	t.CheckInAt = &now
	t.UpdatedAt = now

	if err := u.ticketRepository.Update(ctx, t.ID, t, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		return TicketResponse{}, err
	}

	resp := TicketResponse{}
	resp.PopulateFromEntity(t)

	return resp, nil
}

// Cancel implements TicketUseCase.
func (u *ticketUseCase) Cancel(ctx context.Context, ticketID string) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByIDForUpdate(ctx, ticketID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if t.HolderID != acc.ID {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "ticket does not belong to the requesting account")
	}

	if t.Status != StatusActive {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, stateConflict("cancelled", t.Status)
	}

	t.Status = StatusCancelled
	t.UpdatedAt = time.Now()

	if err := u.ticketRepository.Update(ctx, t.ID, t, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		return TicketResponse{}, err
	}

	eventBuff, _ := json.Marshal(TicketCancelledEvent{TicketID: t.ID, Number: t.Number, EventID: t.EventID})
	u.publisher.Publish(ctx, "ticket-cancelled", t.ID, nil, eventBuff)

	resp := TicketResponse{}
	resp.PopulateFromEntity(t)

	return resp, nil
}

// Transfer implements TicketUseCase. Only the source ticket is touched;
// no ticket is minted for the recipient, the recorded email is picked up
// by the claims workflow downstream.
func (u *ticketUseCase) Transfer(ctx context.Context, req TransferRequest) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	tx, err := u.ticketRepository.BeginTx(ctx)
	if err != nil {
		return TicketResponse{}, err
	}

	t, err := u.ticketRepository.FindByIDForUpdate(ctx, req.TicketID, tx)
	if err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if t.HolderID != acc.ID {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "ticket does not belong to the requesting account")
	}

	if t.Status != StatusActive {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, stateConflict("transferred", t.Status)
	}

	t.Status = StatusTransferred
	t.TransferredTo = &req.RecipientEmail
	t.UpdatedAt = time.Now()

	if err := u.ticketRepository.Update(ctx, t.ID, t, tx); err != nil {
		u.ticketRepository.Rollback(ctx, tx)
		return TicketResponse{}, err
	}

	if err := u.ticketRepository.CommitTx(ctx, tx); err != nil {
		return TicketResponse{}, err
	}

	eventBuff, _ := json.Marshal(TicketTransferredEvent{TicketID: t.ID, Number: t.Number, EventID: t.EventID, RecipientEmail: req.RecipientEmail})
	u.publisher.Publish(ctx, "ticket-transferred", t.ID, nil, eventBuff)

	resp := TicketResponse{}
	resp.PopulateFromEntity(t)

	return resp, nil
}

// CancelManyByOrderID implements TicketUseCase. It runs inside the
// caller's transaction; the refund must not land with half its tickets
// cancelled. Already terminal tickets are skipped.
func (u *ticketUseCase) CancelManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Ticket, error) {
	tickets, err := u.ticketRepository.FindManyByOrderID(ctx, orderID, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cancelled := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status != StatusActive {
			continue
		}

		t.Status = StatusCancelled
		t.UpdatedAt = now

		if err := u.ticketRepository.Update(ctx, t.ID, t, tx); err != nil {
			return nil, err
		}

		cancelled = append(cancelled, t)
	}

	return cancelled, nil
}
