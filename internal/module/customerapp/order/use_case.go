package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/inventory"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/stripe"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/ticket"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/util"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/gctasks"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error)
	OnPaymentWebhook(ctx context.Context, rawPayload []byte, signatureHeader string) error
	RequestRefund(ctx context.Context, orderID string) (OrderResponse, error)
	OnExpireOrder(ctx context.Context, e ExpireOrderEvent) error
	GetManyOrder(ctx context.Context, req GetManyOrderRequest) (GetManyOrderResponse, int64, error)
	GetOrder(ctx context.Context, orderID string) (OrderResponse, error)
}

type orderUseCase struct {
	logger                  *logrus.Logger
	timeout                 time.Duration
	baseURL                 string
	orderExpireDuration     time.Duration
	serviceChargePercentage float64
	restockOnRefund         bool
	tierRepository          inventory.TierRepository
	ledger                  inventory.Ledger
	orderRepository         OrderRepository
	ticketIssuer            ticket.Issuer
	ticketUseCase           ticket.TicketUseCase
	stripeRepository        stripe.StripeRepository
	publisher               pubsub.Publisher
	cloudTask               gctasks.Client
}

type OrderUseCaseProperty struct {
	Logger                  *logrus.Logger
	Timeout                 time.Duration
	BaseURL                 string
	OrderExpireDuration     time.Duration
	ServiceChargePercentage float64
	RestockOnRefund         bool
	TierRepository          inventory.TierRepository
	Ledger                  inventory.Ledger
	OrderRepository         OrderRepository
	TicketIssuer            ticket.Issuer
	TicketUseCase           ticket.TicketUseCase
	StripeRepository        stripe.StripeRepository
	Publisher               pubsub.Publisher
	CloudTask               gctasks.Client
}

func NewOrderUseCase(props OrderUseCaseProperty) OrderUseCase {
	return &orderUseCase{
		logger:                  props.Logger,
		timeout:                 props.Timeout,
		baseURL:                 props.BaseURL,
		orderExpireDuration:     props.OrderExpireDuration,
		serviceChargePercentage: props.ServiceChargePercentage,
		restockOnRefund:         props.RestockOnRefund,
		tierRepository:          props.TierRepository,
		ledger:                  props.Ledger,
		orderRepository:         props.OrderRepository,
		ticketIssuer:            props.TicketIssuer,
		ticketUseCase:           props.TicketUseCase,
		stripeRepository:        props.StripeRepository,
		publisher:               props.Publisher,
		cloudTask:               props.CloudTask,
	}
}

// PlaceOrder implements OrderUseCase. The reservation is durable before
// the gateway is called; a gateway failure is compensated by releasing it
// in a follow-up transaction, never by holding locks across the call.
func (u *orderUseCase) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	tier, err := u.tierRepository.FindByID(ctx, req.TierID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	if tier.EventID != req.EventID {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid tier id")
	}

	now := time.Now()
	if !tier.IsOnSale(now) {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "tier is not on sale")
	}

	subtotal := tier.Price * float64(req.Quantity)
	serviceCharge := util.RoundCurrency(subtotal * u.serviceChargePercentage / 100)
	totalAmount := util.RoundCurrency(subtotal + subtotal*u.serviceChargePercentage/100)

	o := Order{
		ID:                      util.GenerateTimestampWithPrefix("TO"),
		CustomerID:              acc.ID,
		CustomerName:            acc.Name,
		CustomerEmail:           acc.Email,
		EventID:                 tier.EventID,
		TierID:                  tier.ID,
		TierName:                tier.Name,
		Quantity:                req.Quantity,
		UnitPrice:               tier.Price,
		Currency:                tier.Currency,
		ServiceChargePercentage: u.serviceChargePercentage,
		ServiceCharge:           serviceCharge,
		Subtotal:                util.RoundCurrency(subtotal),
		TotalAmount:             totalAmount,
		Status:                  StatusPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	reservation, err := u.ledger.Reserve(ctx, tier.ID, o.ID, req.Quantity, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}
	o.ReservationID = reservation.ID

	if err := u.orderRepository.Save(ctx, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	intent, err := u.stripeRepository.CreateIntent(ctx, stripe.CreateIntentRequest{
		AmountMinorUnits: util.ToMinorUnits(o.TotalAmount),
		Currency:         o.Currency,
		CustomerEmail:    o.CustomerEmail,
		Metadata: map[string]string{
			"order_id": o.ID,
			"event_id": o.EventID,
			"tier":     o.TierName,
			"quantity": fmt.Sprintf("%d", o.Quantity),
		},
	})
	if err != nil {
		u.compensateFailedIntent(ctx, o)
		return PlaceOrderResponse{}, err
	}

	o.PaymentIntentID = &intent.ID
	o.UpdatedAt = time.Now()

	tx, err = u.orderRepository.BeginTx(ctx)
	if err != nil {
		return PlaceOrderResponse{}, err
	}
	if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}
	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return PlaceOrderResponse{}, err
	}

	u.scheduleExpiry(ctx, o, now.Add(u.orderExpireDuration))

	resp := PlaceOrderResponse{}
	resp.PopulateFromEntity(o)
	resp.ClientSecret = intent.ClientSecret

	return resp, nil
}

func (u *orderUseCase) compensateFailedIntent(ctx context.Context, o Order) {
	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return
	}

	if err := u.ledger.Release(ctx, o.ReservationID, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return
	}

	o.Status = StatusFailed
	o.UpdatedAt = time.Now()
	if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return
	}

	u.orderRepository.CommitTx(ctx, tx)
}

func (u *orderUseCase) scheduleExpiry(ctx context.Context, o Order, expireAt time.Time) {
	eventBuff, _ := json.Marshal(ExpireOrderEvent{ID: o.ID})

	err := u.cloudTask.DeferCreateTaskInTime("expire-order", gctasks.Request{
		URL:    fmt.Sprintf("%s/tm-fulfillment/v1/customerapp/orders/on-expire", u.baseURL),
		Method: cloudtaskspb.HttpMethod_POST,
		Body:   eventBuff,
	}, expireAt)
	if err != nil {
		u.logger.WithContext(ctx).WithField("order_id", o.ID).WithError(err).Error("failed to schedule order expiry")
	}
}

// OnPaymentWebhook implements OrderUseCase. Processing is keyed by the
// gateway's payment intent reference. Replays against a terminal order are
// acknowledged without side effects; internal failures surface so the
// gateway redelivers.
func (u *orderUseCase) OnPaymentWebhook(ctx context.Context, rawPayload []byte, signatureHeader string) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	event, err := u.stripeRepository.VerifyWebhook(rawPayload, signatureHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case stripe.EventPaymentSucceeded, stripe.EventPaymentFailed:
	default:
		return nil
	}

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	o, err := u.orderRepository.FindByPaymentIntentIDForUpdate(ctx, event.IntentID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		if errors.Destruct(err).Status == status.NOT_FOUND {
			// an intent this service never created; acknowledge so the
			// gateway stops redelivering
			return nil
		}
		return err
	}

	if o.Status != StatusPending {
		u.orderRepository.Rollback(ctx, tx)
		return nil
	}

	if event.Type == stripe.EventPaymentFailed {
		if err := u.ledger.Release(ctx, o.ReservationID, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}

		o.Status = StatusFailed
		o.UpdatedAt = time.Now()
		if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}

		return u.orderRepository.CommitTx(ctx, tx)
	}

	tickets, err := u.ticketIssuer.IssueForOrder(ctx, ticket.IssueSpec{
		OrderID:    o.ID,
		HolderID:   o.CustomerID,
		EventID:    o.EventID,
		Tier:       o.TierName,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice,
		ServiceFee: o.ServiceCharge,
		Currency:   o.Currency,
	}, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.ledger.Commit(ctx, o.ReservationID, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	o.Status = StatusCompleted
	o.UpdatedAt = time.Now()
	if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	u.publishCompleted(ctx, o, tickets)

	return nil
}

func (u *orderUseCase) publishCompleted(ctx context.Context, o Order, tickets []ticket.Ticket) {
	orderBuff, _ := json.Marshal(OrderCompletedEvent{
		OrderID:     o.ID,
		EventID:     o.EventID,
		CustomerID:  o.CustomerID,
		Quantity:    o.Quantity,
		TotalAmount: o.TotalAmount,
	})
	u.publisher.Publish(ctx, "order-completed", o.ID, nil, orderBuff)

	ids := make([]string, len(tickets))
	numbers := make([]string, len(tickets))
	for k, t := range tickets {
		ids[k] = t.ID
		numbers[k] = t.Number
	}

	ticketBuff, _ := json.Marshal(ticket.TicketIssuedEvent{
		OrderID:       o.ID,
		EventID:       o.EventID,
		HolderID:      o.CustomerID,
		TicketIDs:     ids,
		TicketNumbers: numbers,
	})
	u.publisher.Publish(ctx, "ticket-issued", o.ID, nil, ticketBuff)
}

// RequestRefund implements OrderUseCase. The gateway confirms the refund
// before any local state changes; if the gateway call fails the order
// stays COMPLETED and the caller may retry.
func (u *orderUseCase) RequestRefund(ctx context.Context, orderID string) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	o, err := u.orderRepository.FindByID(ctx, orderID, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	if o.CustomerID != acc.ID {
		return OrderResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "order does not belong to the requesting account")
	}

	if o.Status != StatusCompleted {
		return OrderResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, fmt.Sprintf("order cannot be refunded, its current status is '%s'", strings.ToLower(o.Status)))
	}

	if o.PaymentIntentID == nil {
		return OrderResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, "order has no payment intent to refund")
	}

	if _, err := u.stripeRepository.RefundIntent(ctx, *o.PaymentIntentID); err != nil {
		return OrderResponse{}, err
	}

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	o, err = u.orderRepository.FindByIDForUpdate(ctx, orderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if o.Status != StatusCompleted {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, fmt.Sprintf("order cannot be refunded, its current status is '%s'", strings.ToLower(o.Status)))
	}

	cancelled, err := u.ticketUseCase.CancelManyByOrderID(ctx, o.ID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if u.restockOnRefund {
		if err := u.tierRepository.DecrementSold(ctx, o.TierID, o.Quantity, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return OrderResponse{}, err
		}
	}

	o.Status = StatusRefunded
	o.UpdatedAt = time.Now()
	if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(OrderRefundedEvent{
		OrderID:     o.ID,
		EventID:     o.EventID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
	})
	u.publisher.Publish(ctx, "order-refunded", o.ID, nil, orderBuff)

	for _, t := range cancelled {
		ticketBuff, _ := json.Marshal(ticket.TicketCancelledEvent{TicketID: t.ID, Number: t.Number, EventID: t.EventID})
		u.publisher.Publish(ctx, "ticket-cancelled", t.ID, nil, ticketBuff)
	}

	resp := OrderResponse{}
	resp.PopulateFromEntity(o)

	return resp, nil
}

// OnExpireOrder implements OrderUseCase. Fired by the deferred task; an
// order that was paid meanwhile is left alone.
func (u *orderUseCase) OnExpireOrder(ctx context.Context, e ExpireOrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	o, err := u.orderRepository.FindByIDForUpdate(ctx, e.ID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if o.Status != StatusPending {
		u.orderRepository.Rollback(ctx, tx)
		return nil
	}

	if err := u.ledger.Release(ctx, o.ReservationID, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	if err := u.orderRepository.Update(ctx, o.ID, o, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	return u.orderRepository.CommitTx(ctx, tx)
}

// GetManyOrder implements OrderUseCase.
func (u *orderUseCase) GetManyOrder(ctx context.Context, req GetManyOrderRequest) (GetManyOrderResponse, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.Size
	orders, err := u.orderRepository.FindManyByCustomerID(ctx, acc.ID, offset, req.Size, nil)
	if err != nil {
		return nil, 0, err
	}

	total, err := u.orderRepository.CountByCustomerID(ctx, acc.ID, nil)
	if err != nil {
		return nil, 0, err
	}

	resp := make(GetManyOrderResponse, len(orders))
	for k, o := range orders {
		resp[k].PopulateFromEntity(o)
	}

	return resp, total, nil
}

// GetOrder implements OrderUseCase.
func (u *orderUseCase) GetOrder(ctx context.Context, orderID string) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	o, err := u.orderRepository.FindByID(ctx, orderID, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	if o.CustomerID != acc.ID {
		return OrderResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "order does not belong to the requesting account")
	}

	resp := OrderResponse{}
	resp.PopulateFromEntity(o)

	return resp, nil
}
