package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/ticket"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type MarketplaceUseCase interface {
	CreateListing(ctx context.Context, req CreateListingRequest) (ListingResponse, error)
	Purchase(ctx context.Context, req PurchaseRequest) (ListingResponse, error)
	CancelListing(ctx context.Context, listingID string) (ListingResponse, error)
	GetManyListing(ctx context.Context, req GetManyListingRequest) (GetManyListingResponse, error)
}

type marketplaceUseCase struct {
	logger            *logrus.Logger
	timeout           time.Duration
	listingRepository ListingRepository
	ticketRepository  ticket.TicketRepository
	publisher         pubsub.Publisher
}

type MarketplaceUseCaseProperty struct {
	Logger            *logrus.Logger
	Timeout           time.Duration
	ListingRepository ListingRepository
	TicketRepository  ticket.TicketRepository
	Publisher         pubsub.Publisher
}

func NewMarketplaceUseCase(props MarketplaceUseCaseProperty) MarketplaceUseCase {
	return &marketplaceUseCase{
		logger:            props.Logger,
		timeout:           props.Timeout,
		listingRepository: props.ListingRepository,
		ticketRepository:  props.TicketRepository,
		publisher:         props.Publisher,
	}
}

// CreateListing implements MarketplaceUseCase. The seller must hold the
// ticket and the ticket must still be ACTIVE; a ticket carries at most one
// open listing.
func (u *marketplaceUseCase) CreateListing(ctx context.Context, req CreateListingRequest) (ListingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ListingResponse{}, err
	}

	t, err := u.ticketRepository.FindByID(ctx, req.TicketID, nil)
	if err != nil {
		return ListingResponse{}, err
	}

	if t.HolderID != acc.ID {
		return ListingResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "ticket does not belong to the requesting account")
	}

	if t.Status != ticket.StatusActive {
		return ListingResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, fmt.Sprintf("ticket cannot be listed, its current status is '%s'", strings.ToLower(t.Status)))
	}

	_, err = u.listingRepository.FindOpenByTicketID(ctx, req.TicketID, nil)
	if err == nil {
		return ListingResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, "ticket already has an open listing")
	}
	if errors.Destruct(err).Status != status.NOT_FOUND {
		return ListingResponse{}, err
	}

	now := time.Now()
	l := Listing{
		ID:          uuid.NewString(),
		SellerID:    acc.ID,
		TicketID:    t.ID,
		EventID:     t.EventID,
		AskingPrice: req.AskingPrice,
		Currency:    t.Currency,
		Status:      ListingStatusActive,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.listingRepository.Save(ctx, l, nil); err != nil {
		return ListingResponse{}, err
	}

	buff, _ := json.Marshal(ListingCreatedEvent{
		ListingID:   l.ID,
		TicketID:    l.TicketID,
		EventID:     l.EventID,
		SellerID:    l.SellerID,
		AskingPrice: l.AskingPrice,
	})
	u.publisher.Publish(ctx, "listing-created", l.ID, nil, buff)

	resp := ListingResponse{}
	resp.PopulateFromEntity(l)

	return resp, nil
}

// Purchase implements MarketplaceUseCase. Settlement is a single
// conditional update; a zero-row result means another buyer won, the
// listing was cancelled, or it expired.
func (u *marketplaceUseCase) Purchase(ctx context.Context, req PurchaseRequest) (ListingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ListingResponse{}, err
	}

	l, err := u.listingRepository.FindByID(ctx, req.ListingID, nil)
	if err != nil {
		return ListingResponse{}, err
	}

	if l.SellerID == acc.ID {
		return ListingResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "a listing cannot be purchased by its own seller")
	}

	finalPrice := l.AskingPrice
	if req.OfferedPrice != nil {
		finalPrice = *req.OfferedPrice
	}

	now := time.Now()
	settled, err := u.listingRepository.PurchaseIfActive(ctx, l.ID, acc.ID, finalPrice, now, nil)
	if err != nil {
		return ListingResponse{}, err
	}

	if !settled {
		return ListingResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, "listing is no longer available for purchase")
	}

	l.Status = ListingStatusSold
	l.BuyerID = &acc.ID
	l.FinalPrice = &finalPrice
	l.SoldAt = &now
	l.UpdatedAt = now

	buff, _ := json.Marshal(ListingSoldEvent{
		ListingID:  l.ID,
		TicketID:   l.TicketID,
		EventID:    l.EventID,
		SellerID:   l.SellerID,
		BuyerID:    acc.ID,
		FinalPrice: finalPrice,
	})
	u.publisher.Publish(ctx, "listing-sold", l.ID, nil, buff)

	resp := ListingResponse{}
	resp.PopulateFromEntity(l)

	return resp, nil
}

// CancelListing implements MarketplaceUseCase.
func (u *marketplaceUseCase) CancelListing(ctx context.Context, listingID string) (ListingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return ListingResponse{}, err
	}

	l, err := u.listingRepository.FindByID(ctx, listingID, nil)
	if err != nil {
		return ListingResponse{}, err
	}

	if l.SellerID != acc.ID {
		return ListingResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "listing does not belong to the requesting account")
	}

	cancelled, err := u.listingRepository.CancelIfActive(ctx, l.ID, nil)
	if err != nil {
		return ListingResponse{}, err
	}

	if !cancelled {
		return ListingResponse{}, errors.New(http.StatusConflict, status.STATE_CONFLICT, fmt.Sprintf("listing cannot be cancelled, its current status is '%s'", strings.ToLower(l.Status)))
	}

	l.Status = ListingStatusCancelled
	l.UpdatedAt = time.Now()

	resp := ListingResponse{}
	resp.PopulateFromEntity(l)

	return resp, nil
}

// GetManyListing implements MarketplaceUseCase.
func (u *marketplaceUseCase) GetManyListing(ctx context.Context, req GetManyListingRequest) (GetManyListingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	filter := FindManyFilter{
		EventID: req.EventID,
		Status:  req.Status,
		Offset:  (req.Page - 1) * req.Size,
		Limit:   req.Size,
	}

	listings, err := u.listingRepository.FindMany(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyListingResponse, len(listings))
	for k, l := range listings {
		resp[k].PopulateFromEntity(l)
	}

	return resp, nil
}
