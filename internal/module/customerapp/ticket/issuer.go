package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/util"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

// collisions on a single number are regenerated this many times before the
// batch is failed
const maxNumberAttempts = 5

// IssueSpec describes the batch of tickets one completed order is owed.
type IssueSpec struct {
	OrderID    string
	HolderID   int64
	EventID    string
	Tier       string
	Quantity   int64
	UnitPrice  float64
	ServiceFee float64
	Currency   string
}

// Issuer mints tickets for a paid order. IssueForOrder runs inside the
// caller's transaction so the batch lands all-or-nothing with the order's
// transition to completed.
type Issuer interface {
	IssueForOrder(ctx context.Context, spec IssueSpec, tx *sql.Tx) ([]Ticket, error)
}

type issuer struct {
	logger           *logrus.Logger
	signingSecret    string
	ticketRepository TicketRepository
}

func NewIssuer(logger *logrus.Logger, signingSecret string, ticketRepository TicketRepository) Issuer {
	return &issuer{
		logger:           logger,
		signingSecret:    signingSecret,
		ticketRepository: ticketRepository,
	}
}

func generateNumber(now time.Time) string {
	return fmt.Sprintf("TKT-%s-%s", util.Base36Timestamp(now), util.GenerateRandomString(5))
}

// IssueForOrder implements Issuer. Uniqueness of ticket numbers rests on
// the storage constraint, not on generation randomness; a collision
// regenerates only the colliding ticket.
func (i *issuer) IssueForOrder(ctx context.Context, spec IssueSpec, tx *sql.Tx) ([]Ticket, error) {
	serviceFeePerTicket := util.RoundCurrency(spec.ServiceFee / float64(spec.Quantity))

	tickets := make([]Ticket, 0, spec.Quantity)
	for n := int64(0); n < spec.Quantity; n++ {
		var saved bool

		for attempt := 0; attempt < maxNumberAttempts; attempt++ {
			now := time.Now()
			number := generateNumber(now)

			t := Ticket{
				ID:                  uuid.NewString(),
				Number:              number,
				VerificationPayload: BuildVerificationPayload(i.signingSecret, number, spec.EventID, spec.HolderID, now),
				OrderID:             spec.OrderID,
				HolderID:            spec.HolderID,
				EventID:             spec.EventID,
				Tier:                spec.Tier,
				Price:               spec.UnitPrice,
				ServiceFee:          serviceFeePerTicket,
				Currency:            spec.Currency,
				Status:              StatusActive,
				CreatedAt:           now,
				UpdatedAt:           now,
			}

			err := i.ticketRepository.Save(ctx, t, tx)
			if err == ErrDuplicateNumber {
				i.logger.WithContext(ctx).WithField("number", number).Warn("ticket number collision, regenerating")
				continue
			}
			if err != nil {
				return nil, err
			}

			tickets = append(tickets, t)
			saved = true
			break
		}

		if !saved {
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "unable to generate a unique ticket number")
		}
	}

	return tickets, nil
}
