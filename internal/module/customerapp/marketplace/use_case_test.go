package marketplace

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/module/customerapp/ticket"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/applogger"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type mockListingRepository struct {
	mock.Mock
}

func (m *mockListingRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

func (m *mockListingRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockListingRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockListingRepository) Save(ctx context.Context, l Listing, tx *sql.Tx) error {
	args := m.Called(ctx, l, tx)
	return args.Error(0)
}

func (m *mockListingRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Listing, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Listing), args.Error(1)
}

func (m *mockListingRepository) FindOpenByTicketID(ctx context.Context, ticketID string, tx *sql.Tx) (Listing, error) {
	args := m.Called(ctx, ticketID, tx)
	return args.Get(0).(Listing), args.Error(1)
}

func (m *mockListingRepository) FindMany(ctx context.Context, filter FindManyFilter, tx *sql.Tx) ([]Listing, error) {
	args := m.Called(ctx, filter, tx)
	return args.Get(0).([]Listing), args.Error(1)
}

func (m *mockListingRepository) PurchaseIfActive(ctx context.Context, ID string, buyerID int64, finalPrice float64, soldAt time.Time, tx *sql.Tx) (bool, error) {
	args := m.Called(ctx, ID, buyerID, finalPrice, soldAt, tx)
	return args.Bool(0), args.Error(1)
}

func (m *mockListingRepository) CancelIfActive(ctx context.Context, ID string, tx *sql.Tx) (bool, error) {
	args := m.Called(ctx, ID, tx)
	return args.Bool(0), args.Error(1)
}

func (m *mockListingRepository) GetStats(ctx context.Context, eventID string, tx *sql.Tx) (ListingStats, error) {
	args := m.Called(ctx, eventID, tx)
	return args.Get(0).(ListingStats), args.Error(1)
}

type mockTicketRepository struct {
	mock.Mock
}

func (m *mockTicketRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

func (m *mockTicketRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTicketRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTicketRepository) Save(ctx context.Context, t ticket.Ticket, tx *sql.Tx) error {
	args := m.Called(ctx, t, tx)
	return args.Error(0)
}

func (m *mockTicketRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (ticket.Ticket, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(ticket.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (ticket.Ticket, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(ticket.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByNumber(ctx context.Context, number string, tx *sql.Tx) (ticket.Ticket, error) {
	args := m.Called(ctx, number, tx)
	return args.Get(0).(ticket.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]ticket.Ticket, error) {
	args := m.Called(ctx, orderID, tx)
	return args.Get(0).([]ticket.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindManyByHolderID(ctx context.Context, holderID int64, tx *sql.Tx) ([]ticket.Ticket, error) {
	args := m.Called(ctx, holderID, tx)
	return args.Get(0).([]ticket.Ticket), args.Error(1)
}

func (m *mockTicketRepository) Update(ctx context.Context, ID string, t ticket.Ticket, tx *sql.Tx) error {
	args := m.Called(ctx, ID, t, tx)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
	m.Called(ctx, topic, key, headers, message)
}

func (m *mockPublisher) Close() {
	m.Called()
}

func newMarketplaceUseCaseForTest() (MarketplaceUseCase, *mockListingRepository, *mockTicketRepository, *mockPublisher) {
	listingRepo := new(mockListingRepository)
	ticketRepo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	uc := NewMarketplaceUseCase(MarketplaceUseCaseProperty{
		Logger:            applogger.GetLogrus(),
		Timeout:           5 * time.Second,
		ListingRepository: listingRepo,
		TicketRepository:  ticketRepo,
		Publisher:         publisher,
	})

	return uc, listingRepo, ticketRepo, publisher
}

func customerCtx(id int64) context.Context {
	return session.SetAccountToCtx(context.Background(), session.Account{ID: id, Name: "John Doe", Email: "john@doe.com"})
}

func TestCreateListing(t *testing.T) {
	uc, listingRepo, ticketRepo, publisher := newMarketplaceUseCaseForTest()

	ticketRepo.On("FindByID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(ticket.Ticket{ID: "tic-1", HolderID: 42, EventID: "event-001", Currency: "USD", Status: ticket.StatusActive}, nil)
	listingRepo.On("FindOpenByTicketID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(Listing{}, errors.New(404, status.NOT_FOUND, "listing is not found"))
	listingRepo.On("Save", mock.Anything, mock.MatchedBy(func(l Listing) bool {
		return l.SellerID == 42 && l.TicketID == "tic-1" && l.Status == ListingStatusActive && l.AskingPrice == 75 && l.ID != ""
	}), (*sql.Tx)(nil)).Return(nil)
	publisher.On("Publish", mock.Anything, "listing-created", mock.Anything, map[string]string(nil), mock.Anything).Return()

	resp, err := uc.CreateListing(customerCtx(42), CreateListingRequest{TicketID: "tic-1", AskingPrice: 75})
	require.NoError(t, err)
	assert.Equal(t, ListingStatusActive, resp.Status)
	assert.Equal(t, "USD", resp.Currency)

	listingRepo.AssertExpectations(t)
}

func TestCreateListingRejectsForeignTicket(t *testing.T) {
	uc, listingRepo, ticketRepo, _ := newMarketplaceUseCaseForTest()

	ticketRepo.On("FindByID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(ticket.Ticket{ID: "tic-1", HolderID: 7, Status: ticket.StatusActive}, nil)

	_, err := uc.CreateListing(customerCtx(42), CreateListingRequest{TicketID: "tic-1", AskingPrice: 75})
	require.Error(t, err)
	assert.Equal(t, status.FORBIDDEN, errors.Destruct(err).Status)

	listingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateListingRejectsNonActiveTicket(t *testing.T) {
	uc, _, ticketRepo, _ := newMarketplaceUseCaseForTest()

	ticketRepo.On("FindByID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(ticket.Ticket{ID: "tic-1", HolderID: 42, Status: ticket.StatusUsed}, nil)

	_, err := uc.CreateListing(customerCtx(42), CreateListingRequest{TicketID: "tic-1", AskingPrice: 75})
	require.Error(t, err)
	assert.Equal(t, status.STATE_CONFLICT, errors.Destruct(err).Status)
}

func TestCreateListingRejectsDuplicateOpenListing(t *testing.T) {
	uc, listingRepo, ticketRepo, _ := newMarketplaceUseCaseForTest()

	ticketRepo.On("FindByID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(ticket.Ticket{ID: "tic-1", HolderID: 42, Status: ticket.StatusActive}, nil)
	listingRepo.On("FindOpenByTicketID", mock.Anything, "tic-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", Status: ListingStatusActive}, nil)

	_, err := uc.CreateListing(customerCtx(42), CreateListingRequest{TicketID: "tic-1", AskingPrice: 75})
	require.Error(t, err)
	assert.Equal(t, status.STATE_CONFLICT, errors.Destruct(err).Status)

	listingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase(t *testing.T) {
	uc, listingRepo, _, publisher := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 7, TicketID: "tic-1", EventID: "event-001", AskingPrice: 75, Status: ListingStatusActive}, nil)
	listingRepo.On("PurchaseIfActive", mock.Anything, "lst-1", int64(42), 75.0, mock.Anything, (*sql.Tx)(nil)).Return(true, nil)
	publisher.On("Publish", mock.Anything, "listing-sold", "lst-1", map[string]string(nil), mock.Anything).Return()

	resp, err := uc.Purchase(customerCtx(42), PurchaseRequest{ListingID: "lst-1"})
	require.NoError(t, err)
	assert.Equal(t, ListingStatusSold, resp.Status)
	require.NotNil(t, resp.FinalPrice)
	assert.Equal(t, 75.0, *resp.FinalPrice)
	require.NotNil(t, resp.BuyerID)
	assert.Equal(t, int64(42), *resp.BuyerID)

	publisher.AssertExpectations(t)
}

func TestPurchaseUsesOfferedPrice(t *testing.T) {
	uc, listingRepo, _, publisher := newMarketplaceUseCaseForTest()

	offered := 60.0

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 7, AskingPrice: 75, Status: ListingStatusActive}, nil)
	listingRepo.On("PurchaseIfActive", mock.Anything, "lst-1", int64(42), 60.0, mock.Anything, (*sql.Tx)(nil)).Return(true, nil)
	publisher.On("Publish", mock.Anything, "listing-sold", "lst-1", map[string]string(nil), mock.Anything).Return()

	resp, err := uc.Purchase(customerCtx(42), PurchaseRequest{ListingID: "lst-1", OfferedPrice: &offered})
	require.NoError(t, err)
	require.NotNil(t, resp.FinalPrice)
	assert.Equal(t, 60.0, *resp.FinalPrice)
}

func TestPurchaseRejectsSelfPurchase(t *testing.T) {
	uc, listingRepo, _, _ := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 42, Status: ListingStatusActive}, nil)

	_, err := uc.Purchase(customerCtx(42), PurchaseRequest{ListingID: "lst-1"})
	require.Error(t, err)
	assert.Equal(t, status.FORBIDDEN, errors.Destruct(err).Status)

	listingRepo.AssertNotCalled(t, "PurchaseIfActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseConflictWhenListingNoLongerActive(t *testing.T) {
	uc, listingRepo, _, publisher := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 7, AskingPrice: 75, Status: ListingStatusActive}, nil)
	listingRepo.On("PurchaseIfActive", mock.Anything, "lst-1", int64(42), 75.0, mock.Anything, (*sql.Tx)(nil)).Return(false, nil)

	_, err := uc.Purchase(customerCtx(42), PurchaseRequest{ListingID: "lst-1"})
	require.Error(t, err)
	assert.Equal(t, status.STATE_CONFLICT, errors.Destruct(err).Status)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelListing(t *testing.T) {
	uc, listingRepo, _, _ := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 42, Status: ListingStatusActive}, nil)
	listingRepo.On("CancelIfActive", mock.Anything, "lst-1", (*sql.Tx)(nil)).Return(true, nil)

	resp, err := uc.CancelListing(customerCtx(42), "lst-1")
	require.NoError(t, err)
	assert.Equal(t, ListingStatusCancelled, resp.Status)
}

func TestCancelListingRejectsForeignSeller(t *testing.T) {
	uc, listingRepo, _, _ := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 7, Status: ListingStatusActive}, nil)

	_, err := uc.CancelListing(customerCtx(42), "lst-1")
	require.Error(t, err)
	assert.Equal(t, status.FORBIDDEN, errors.Destruct(err).Status)

	listingRepo.AssertNotCalled(t, "CancelIfActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelListingConflictWhenAlreadySold(t *testing.T) {
	uc, listingRepo, _, _ := newMarketplaceUseCaseForTest()

	listingRepo.On("FindByID", mock.Anything, "lst-1", (*sql.Tx)(nil)).
		Return(Listing{ID: "lst-1", SellerID: 42, Status: ListingStatusSold}, nil)
	listingRepo.On("CancelIfActive", mock.Anything, "lst-1", (*sql.Tx)(nil)).Return(false, nil)

	_, err := uc.CancelListing(customerCtx(42), "lst-1")
	require.Error(t, err)
	assert.Equal(t, status.STATE_CONFLICT, errors.Destruct(err).Status)
}
