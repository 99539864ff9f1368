package ticket

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/applogger"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

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

func (m *mockTicketRepository) Save(ctx context.Context, t Ticket, tx *sql.Tx) error {
	args := m.Called(ctx, t, tx)
	return args.Error(0)
}

func (m *mockTicketRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Ticket, error) {
	args := m.Called(ctx, ID, tx)
	return args.Get(0).(Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByNumber(ctx context.Context, number string, tx *sql.Tx) (Ticket, error) {
	args := m.Called(ctx, number, tx)
	return args.Get(0).(Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Ticket, error) {
	args := m.Called(ctx, orderID, tx)
	return args.Get(0).([]Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindManyByHolderID(ctx context.Context, holderID int64, tx *sql.Tx) ([]Ticket, error) {
	args := m.Called(ctx, holderID, tx)
	return args.Get(0).([]Ticket), args.Error(1)
}

func (m *mockTicketRepository) Update(ctx context.Context, ID string, t Ticket, tx *sql.Tx) error {
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

func newTicketUseCaseForTest(repo TicketRepository, publisher *mockPublisher) TicketUseCase {
	return NewTicketUseCase(TicketUseCaseProperty{
		Logger:           applogger.GetLogrus(),
		Timeout:          5 * time.Second,
		TicketRepository: repo,
		Publisher:        publisher,
	})
}

func customerCtx(id int64) context.Context {
	return session.SetAccountToCtx(context.Background(), session.Account{ID: id, Name: "John Doe", Email: "john@doe.com"})
}

func staffCtx(eventIDs ...string) context.Context {
	return session.SetAdminToCtx(context.Background(), session.Admin{ID: 9, Name: "Gate Staff", Email: "staff@venue.com", EventIDs: eventIDs})
}

func TestCheckIn(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	active := Ticket{ID: "tic-1", Number: "TKT-A-00001", EventID: "event-001", HolderID: 42, Status: StatusActive}

	repo.On("FindByNumber", mock.Anything, "TKT-A-00001", (*sql.Tx)(nil)).Return(active, nil)
	repo.On("BeginTx", mock.Anything).Return((*sql.Tx)(nil), nil)
	repo.On("FindByIDForUpdate", mock.Anything, "tic-1", (*sql.Tx)(nil)).Return(active, nil)
	repo.On("Update", mock.Anything, "tic-1", mock.MatchedBy(func(tk Ticket) bool {
		return tk.Status == StatusUsed && tk.CheckInAt != nil
	}), (*sql.Tx)(nil)).Return(nil)
	repo.On("CommitTx", mock.Anything, (*sql.Tx)(nil)).Return(nil)

	uc := newTicketUseCaseForTest(repo, publisher)

	resp, err := uc.CheckIn(staffCtx("event-001"), CheckInRequest{TicketNumber: "TKT-A-00001"})
	require.NoError(t, err)
	assert.Equal(t, StatusUsed, resp.Status)
	assert.NotNil(t, resp.CheckInAt)
}

func TestCheckInRejectsUsedTicket(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	used := Ticket{ID: "tic-1", Number: "TKT-A-00001", EventID: "event-001", Status: StatusUsed}

	repo.On("FindByNumber", mock.Anything, "TKT-A-00001", (*sql.Tx)(nil)).Return(used, nil)
	repo.On("BeginTx", mock.Anything).Return((*sql.Tx)(nil), nil)
	repo.On("FindByIDForUpdate", mock.Anything, "tic-1", (*sql.Tx)(nil)).Return(used, nil)
	repo.On("Rollback", mock.Anything, (*sql.Tx)(nil)).Return(nil)

	uc := newTicketUseCaseForTest(repo, publisher)

	_, err := uc.CheckIn(staffCtx("event-001"), CheckInRequest{TicketNumber: "TKT-A-00001"})
	require.Error(t, err)
	assert.Equal(t, status.STATE_CONFLICT, errors.Destruct(err).Status)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckInRejectsUnassignedStaff(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	active := Ticket{ID: "tic-1", Number: "TKT-A-00001", EventID: "event-002", Status: StatusActive}

	repo.On("FindByNumber", mock.Anything, "TKT-A-00001", (*sql.Tx)(nil)).Return(active, nil)

	uc := newTicketUseCaseForTest(repo, publisher)

	_, err := uc.CheckIn(staffCtx("event-001"), CheckInRequest{TicketNumber: "TKT-A-00001"})
	require.Error(t, err)
	assert.Equal(t, status.FORBIDDEN, errors.Destruct(err).Status)
}

func TestCancelRejectsForeignHolder(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	foreign := Ticket{ID: "tic-1", HolderID: 7, Status: StatusActive}

	repo.On("BeginTx", mock.Anything).Return((*sql.Tx)(nil), nil)
	repo.On("FindByIDForUpdate", mock.Anything, "tic-1", (*sql.Tx)(nil)).Return(foreign, nil)
	repo.On("Rollback", mock.Anything, (*sql.Tx)(nil)).Return(nil)

	uc := newTicketUseCaseForTest(repo, publisher)

	_, err := uc.Cancel(customerCtx(42), "tic-1")
	require.Error(t, err)
	assert.Equal(t, status.FORBIDDEN, errors.Destruct(err).Status)
}

func TestTransfer(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	active := Ticket{ID: "tic-1", Number: "TKT-A-00001", EventID: "event-001", HolderID: 42, Status: StatusActive}

	repo.On("BeginTx", mock.Anything).Return((*sql.Tx)(nil), nil)
	repo.On("FindByIDForUpdate", mock.Anything, "tic-1", (*sql.Tx)(nil)).Return(active, nil)
	repo.On("Update", mock.Anything, "tic-1", mock.MatchedBy(func(tk Ticket) bool {
		return tk.Status == StatusTransferred && tk.TransferredTo != nil && *tk.TransferredTo == "jane@doe.com"
	}), (*sql.Tx)(nil)).Return(nil)
	repo.On("CommitTx", mock.Anything, (*sql.Tx)(nil)).Return(nil)
	publisher.On("Publish", mock.Anything, "ticket-transferred", "tic-1", map[string]string(nil), mock.Anything).Return()

	uc := newTicketUseCaseForTest(repo, publisher)

	resp, err := uc.Transfer(customerCtx(42), TransferRequest{TicketID: "tic-1", RecipientEmail: "jane@doe.com"})
	require.NoError(t, err)
	assert.Equal(t, StatusTransferred, resp.Status)
	publisher.AssertExpectations(t)
}

func TestCancelManyByOrderIDSkipsTerminalTickets(t *testing.T) {
	repo := new(mockTicketRepository)
	publisher := new(mockPublisher)

	tickets := []Ticket{
		{ID: "tic-1", OrderID: "TO-1", Status: StatusActive},
		{ID: "tic-2", OrderID: "TO-1", Status: StatusUsed},
		{ID: "tic-3", OrderID: "TO-1", Status: StatusActive},
	}

	repo.On("FindManyByOrderID", mock.Anything, "TO-1", (*sql.Tx)(nil)).Return(tickets, nil)
	repo.On("Update", mock.Anything, "tic-1", mock.MatchedBy(func(tk Ticket) bool { return tk.Status == StatusCancelled }), (*sql.Tx)(nil)).Return(nil)
	repo.On("Update", mock.Anything, "tic-3", mock.MatchedBy(func(tk Ticket) bool { return tk.Status == StatusCancelled }), (*sql.Tx)(nil)).Return(nil)

	uc := newTicketUseCaseForTest(repo, publisher)

	cancelled, err := uc.CancelManyByOrderID(context.Background(), "TO-1", nil)
	require.NoError(t, err)
	assert.Len(t, cancelled, 2)
	repo.AssertNotCalled(t, "Update", mock.Anything, "tic-2", mock.Anything, mock.Anything)
}
