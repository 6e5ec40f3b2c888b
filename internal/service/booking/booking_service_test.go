package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/Leonti1991/flightbooking/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock structures

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetSeatLayout(ctx context.Context, airplaneID int64) (domain.SeatLayout, error) {
	args := m.Called(ctx, airplaneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.SeatLayout), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateTotal(ctx context.Context, id int64, totalCents int64) error {
	args := m.Called(ctx, id, totalCents)
	return args.Error(0)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id int64, fromAllowed []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, fromAllowed, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CreateTickets(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	args := m.Called(ctx, tickets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockOrderRepository) ListTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockOrderRepository) UpdateTicketStatuses(ctx context.Context, orderID int64, to domain.TicketStatus) error {
	args := m.Called(ctx, orderID, to)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) TransitionStatus(ctx context.Context, intentID string, from, to domain.PaymentStatus) (bool, error) {
	args := m.Called(ctx, intentID, from, to)
	return args.Bool(0), args.Error(1)
}

type MockReservations struct {
	mock.Mock
}

func (m *MockReservations) Reserve(ctx context.Context, flightID int64, layout domain.SeatLayout, seatNumbers []string) ([]domain.FlightSeat, error) {
	args := m.Called(ctx, flightID, layout, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightSeat), args.Error(1)
}

func (m *MockReservations) Confirm(ctx context.Context, flightID int64, seatNumbers []string) error {
	args := m.Called(ctx, flightID, seatNumbers)
	return args.Error(0)
}

func (m *MockReservations) Release(ctx context.Context, flightID int64, seatNumbers []string) error {
	args := m.Called(ctx, flightID, seatNumbers)
	return args.Error(0)
}

func (m *MockReservations) ExpireFlight(ctx context.Context, flightID int64) (int64, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservations) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservations) SeatStates(ctx context.Context, flightID int64) ([]domain.FlightSeat, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightSeat), args.Error(1)
}

type MockFlightLocker struct {
	mock.Mock
}

func (m *MockFlightLocker) WithFlightLock(ctx context.Context, flightID int64, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, flightID)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, orderID int64) (PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, orderID)
	return args.Get(0).(PaymentIntent), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSeatMap(ctx context.Context, flightID int64) (*domain.SeatMap, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

func (m *MockCache) SetSeatMap(ctx context.Context, seatMap *domain.SeatMap) error {
	args := m.Called(ctx, seatMap)
	return args.Error(0)
}

func (m *MockCache) InvalidateSeatMap(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// Test fixture

type bookingMocks struct {
	flights      *MockFlightRepository
	orders       *MockOrderRepository
	payments     *MockPaymentRepository
	reservations *MockReservations
	locker       *MockFlightLocker
	gateway      *MockGateway
	cache        *MockCache
	producer     *MockProducer
}

func newBookingService() (*BookingService, *bookingMocks) {
	m := &bookingMocks{
		flights:      &MockFlightRepository{},
		orders:       &MockOrderRepository{},
		payments:     &MockPaymentRepository{},
		reservations: &MockReservations{},
		locker:       &MockFlightLocker{},
		gateway:      &MockGateway{},
		cache:        &MockCache{},
		producer:     &MockProducer{},
	}
	service := &BookingService{
		flights:      m.flights,
		orders:       m.orders,
		payments:     m.payments,
		reservations: m.reservations,
		locker:       m.locker,
		pricer:       pricing.NewEngine(0, 0),
		gateway:      m.gateway,
		cache:        m.cache,
		producer:     m.producer,
		ordersTopic:  "order_events",
		currency:     "usd",
		now:          time.Now,
	}
	return service, m
}

func scheduledFlight() *domain.Flight {
	return &domain.Flight{
		ID:             4,
		AirlineCode:    "SU",
		FlightNumber:   "1042",
		AirplaneID:     2,
		FromAirport:    "SVO",
		ToAirport:      "LED",
		Status:         domain.FlightStatusScheduled,
		BasePriceCents: 10000,
	}
}

func bookingLayout() domain.SeatLayout {
	return domain.SeatLayout{
		{SeatNumber: "1A", Class: domain.SeatClassFirst},
		{SeatNumber: "5C", Class: domain.SeatClassBusiness},
		{SeatNumber: "12A", Class: domain.SeatClassEconomy},
		{SeatNumber: "12B", Class: domain.SeatClassEconomy},
	}
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	input := CreateBookingInput{
		FlightID:    4,
		SeatNumbers: []string{"12A", "5C"},
		Email:       "test@example.com",
	}

	reserved := []domain.FlightSeat{
		{ID: 1, FlightID: 4, SeatNumber: "12A", Status: domain.SeatStatusReserved},
		{ID: 2, FlightID: 4, SeatNumber: "5C", Status: domain.SeatStatusReserved},
	}

	m.flights.On("GetByID", ctx, int64(4)).Return(scheduledFlight(), nil).Once()
	m.flights.On("GetSeatLayout", ctx, int64(2)).Return(bookingLayout(), nil).Once()
	m.orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = 11
	}).Return(nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.reservations.On("Reserve", ctx, int64(4), bookingLayout(), input.SeatNumbers).Return(reserved, nil).Once()
	m.orders.On("CreateTickets", ctx, mock.AnythingOfType("[]domain.Ticket")).Return([]domain.Ticket{
		{ID: 21, OrderID: 11, FlightID: 4, SeatNumber: "12A", PriceCents: 10000, Status: domain.TicketStatusBooked},
		{ID: 22, OrderID: 11, FlightID: 4, SeatNumber: "5C", PriceCents: 25000, Status: domain.TicketStatusBooked},
	}, nil).Once()
	// 12A economy 10000 + 5C business 25000
	m.orders.On("UpdateTotal", ctx, int64(11), int64(35000)).Return(nil).Once()
	m.gateway.On("CreateIntent", ctx, int64(35000), "usd", int64(11)).Return(PaymentIntent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
	}, nil).Once()
	m.payments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).Return(nil).Once()
	m.cache.On("InvalidateSeatMap", ctx, int64(4)).Return(nil).Once()
	m.producer.On("Publish", ctx, "order_events", "order-11", mock.Anything).Return(nil).Once()

	result, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int64(35000), result.Order.TotalCents)
	assert.Equal(t, domain.OrderStatusProcessing, result.Order.Status)
	assert.Len(t, result.Tickets, 2)
	assert.Equal(t, "pi_test_1", result.Payment.IntentID)
	assert.Equal(t, int64(35000), result.Payment.AmountCents)
	assert.Equal(t, "pi_test_1_secret", result.ClientSecret)

	m.flights.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
	m.producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service, _ := newBookingService()
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name: "No seats",
			input: CreateBookingInput{
				FlightID: 4,
				Email:    "test@example.com",
			},
			expectedErr: "at least one seat is required",
		},
		{
			name: "Empty email",
			input: CreateBookingInput{
				FlightID:    4,
				SeatNumbers: []string{"12A"},
			},
			expectedErr: "email is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.CreateBooking(ctx, tc.input)
			assert.Error(t, err)
			assert.Nil(t, result)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestBookingService_CreateBooking_FlightNotBookable(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	flight := scheduledFlight()
	flight.Status = domain.FlightStatusCancelled

	m.flights.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()

	result, err := service.CreateBooking(ctx, CreateBookingInput{
		FlightID:    4,
		SeatNumbers: []string{"12A"},
		Email:       "test@example.com",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrFlightNotBookable)

	m.orders.AssertNotCalled(t, "Create")
}

// A seat conflict rolls the reservation back whole and the order ends
// FAILED instead of lingering in PROCESSING.
func TestBookingService_CreateBooking_SeatConflict_OrderFailed(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	input := CreateBookingInput{
		FlightID:    4,
		SeatNumbers: []string{"12A"},
		Email:       "test@example.com",
	}

	conflictErr := &domain.SeatConflictError{Seats: []string{"12A"}}

	m.flights.On("GetByID", ctx, int64(4)).Return(scheduledFlight(), nil).Once()
	m.flights.On("GetSeatLayout", ctx, int64(2)).Return(bookingLayout(), nil).Once()
	m.orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = 12
	}).Return(nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.reservations.On("Reserve", ctx, int64(4), bookingLayout(), input.SeatNumbers).Return(nil, conflictErr).Once()
	m.orders.On("TransitionStatus", ctx, int64(12),
		[]domain.OrderStatus{domain.OrderStatusProcessing},
		domain.OrderStatusFailed).Return(true, nil).Once()

	result, err := service.CreateBooking(ctx, input)

	assert.Error(t, err)
	assert.Nil(t, result)

	var gotConflict *domain.SeatConflictError
	assert.True(t, errors.As(err, &gotConflict))
	assert.Equal(t, []string{"12A"}, gotConflict.Seats)

	m.orders.AssertExpectations(t)
	m.gateway.AssertNotCalled(t, "CreateIntent")
	m.payments.AssertNotCalled(t, "Create")
}

// If the payment provider rejects the intent, the booking is unwound:
// seats released, tickets voided, order FAILED.
func TestBookingService_CreateBooking_GatewayFailure_Unwinds(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	input := CreateBookingInput{
		FlightID:    4,
		SeatNumbers: []string{"12A"},
		Email:       "test@example.com",
	}

	reserved := []domain.FlightSeat{
		{ID: 1, FlightID: 4, SeatNumber: "12A", Status: domain.SeatStatusReserved},
	}
	tickets := []domain.Ticket{
		{ID: 21, OrderID: 13, FlightID: 4, SeatNumber: "12A", PriceCents: 10000, Status: domain.TicketStatusBooked},
	}

	m.flights.On("GetByID", ctx, int64(4)).Return(scheduledFlight(), nil).Once()
	m.flights.On("GetSeatLayout", ctx, int64(2)).Return(bookingLayout(), nil).Once()
	m.orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = 13
	}).Return(nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Twice()
	m.reservations.On("Reserve", ctx, int64(4), bookingLayout(), input.SeatNumbers).Return(reserved, nil).Once()
	m.orders.On("CreateTickets", ctx, mock.AnythingOfType("[]domain.Ticket")).Return(tickets, nil).Once()
	m.orders.On("UpdateTotal", ctx, int64(13), int64(10000)).Return(nil).Once()

	gatewayErr := errors.New("stripe: api unavailable")
	m.gateway.On("CreateIntent", ctx, int64(10000), "usd", int64(13)).Return(PaymentIntent{}, gatewayErr).Once()

	// CancelBooking with the payment cause takes over from here.
	m.orders.On("GetByID", ctx, int64(13)).Return(&domain.Order{
		ID:       13,
		FlightID: 4,
		Email:    input.Email,
		Status:   domain.OrderStatusProcessing,
	}, nil).Once()
	m.orders.On("ListTickets", ctx, int64(13)).Return(tickets, nil).Once()
	m.orders.On("TransitionStatus", ctx, int64(13),
		[]domain.OrderStatus{domain.OrderStatusProcessing},
		domain.OrderStatusFailed).Return(true, nil).Once()
	m.reservations.On("Release", ctx, int64(4), []string{"12A"}).Return(nil).Once()
	m.orders.On("UpdateTicketStatuses", ctx, int64(13), domain.TicketStatusCancelled).Return(nil).Once()
	m.cache.On("InvalidateSeatMap", ctx, int64(4)).Return(nil).Once()
	m.producer.On("Publish", ctx, "order_events", "order-13", mock.Anything).Return(nil).Once()

	result, err := service.CreateBooking(ctx, input)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, gatewayErr, err)

	m.orders.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
	m.payments.AssertNotCalled(t, "Create")
}

func TestBookingService_ConfirmBooking_Success(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:         11,
		FlightID:   4,
		Email:      "test@example.com",
		Status:     domain.OrderStatusProcessing,
		TotalCents: 35000,
	}
	tickets := []domain.Ticket{
		{ID: 21, OrderID: 11, FlightID: 4, SeatNumber: "12A", Status: domain.TicketStatusBooked},
		{ID: 22, OrderID: 11, FlightID: 4, SeatNumber: "5C", Status: domain.TicketStatusBooked},
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()
	m.orders.On("ListTickets", ctx, int64(11)).Return(tickets, nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.orders.On("TransitionStatus", ctx, int64(11),
		[]domain.OrderStatus{domain.OrderStatusProcessing},
		domain.OrderStatusConfirmed).Return(true, nil).Once()
	m.reservations.On("Confirm", ctx, int64(4), []string{"12A", "5C"}).Return(nil).Once()
	m.orders.On("UpdateTicketStatuses", ctx, int64(11), domain.TicketStatusCompleted).Return(nil).Once()
	m.cache.On("InvalidateSeatMap", ctx, int64(4)).Return(nil).Once()
	m.producer.On("Publish", ctx, "order_events", "order-11", mock.Anything).Return(nil).Once()

	got, err := service.ConfirmBooking(ctx, 11)

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)

	m.orders.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
}

// A duplicate confirmation returns the order unchanged without touching
// seats or tickets.
func TestBookingService_ConfirmBooking_AlreadyConfirmed_NoOp(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:       11,
		FlightID: 4,
		Status:   domain.OrderStatusConfirmed,
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()

	got, err := service.ConfirmBooking(ctx, 11)

	assert.NoError(t, err)
	assert.Equal(t, order, got)

	m.orders.AssertNotCalled(t, "TransitionStatus")
	m.reservations.AssertNotCalled(t, "Confirm")
	m.producer.AssertNotCalled(t, "Publish")
}

// Two confirmations race: the loser of the conditional update reloads
// the order instead of double-applying.
func TestBookingService_ConfirmBooking_LostRace_ReturnsCurrent(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	processing := &domain.Order{ID: 11, FlightID: 4, Status: domain.OrderStatusProcessing}
	confirmed := &domain.Order{ID: 11, FlightID: 4, Status: domain.OrderStatusConfirmed}
	tickets := []domain.Ticket{
		{ID: 21, OrderID: 11, FlightID: 4, SeatNumber: "12A", Status: domain.TicketStatusBooked},
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(processing, nil).Once()
	m.orders.On("ListTickets", ctx, int64(11)).Return(tickets, nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.orders.On("TransitionStatus", ctx, int64(11),
		[]domain.OrderStatus{domain.OrderStatusProcessing},
		domain.OrderStatusConfirmed).Return(false, nil).Once()
	m.orders.On("GetByID", ctx, int64(11)).Return(confirmed, nil).Once()

	got, err := service.ConfirmBooking(ctx, 11)

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)

	m.reservations.AssertNotCalled(t, "Confirm")
	m.orders.AssertNotCalled(t, "UpdateTicketStatuses")
}

func TestBookingService_CancelBooking_UserCancel_ReleasesSeats(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:       11,
		FlightID: 4,
		Email:    "test@example.com",
		Status:   domain.OrderStatusConfirmed,
	}
	tickets := []domain.Ticket{
		{ID: 21, OrderID: 11, FlightID: 4, SeatNumber: "12A", Status: domain.TicketStatusCompleted},
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()
	m.orders.On("ListTickets", ctx, int64(11)).Return(tickets, nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.orders.On("TransitionStatus", ctx, int64(11),
		[]domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusConfirmed},
		domain.OrderStatusCancelled).Return(true, nil).Once()
	m.reservations.On("Release", ctx, int64(4), []string{"12A"}).Return(nil).Once()
	m.orders.On("UpdateTicketStatuses", ctx, int64(11), domain.TicketStatusCancelled).Return(nil).Once()
	m.cache.On("InvalidateSeatMap", ctx, int64(4)).Return(nil).Once()
	m.producer.On("Publish", ctx, "order_events", "order-11", mock.Anything).Return(nil).Once()

	got, err := service.CancelBooking(ctx, 11, domain.CancelCauseUser)

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	m.orders.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
}

// A payment-initiated cancellation never touches a CONFIRMED order.
func TestBookingService_CancelBooking_PaymentCause_ConfirmedUntouched(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:       11,
		FlightID: 4,
		Status:   domain.OrderStatusConfirmed,
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()

	got, err := service.CancelBooking(ctx, 11, domain.CancelCausePayment)

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, got.Status)

	m.orders.AssertNotCalled(t, "TransitionStatus")
	m.reservations.AssertNotCalled(t, "Release")
}

func TestBookingService_CancelBooking_AlreadyCancelled_NoOp(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:       11,
		FlightID: 4,
		Status:   domain.OrderStatusCancelled,
	}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()

	got, err := service.CancelBooking(ctx, 11, domain.CancelCauseUser)

	assert.NoError(t, err)
	assert.Equal(t, order, got)

	m.orders.AssertNotCalled(t, "TransitionStatus")
	m.reservations.AssertNotCalled(t, "Release")
	m.producer.AssertNotCalled(t, "Publish")
}

func TestBookingService_CancelBooking_PaymentCause_FailsProcessing(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{
		ID:       13,
		FlightID: 4,
		Email:    "test@example.com",
		Status:   domain.OrderStatusProcessing,
	}
	tickets := []domain.Ticket{
		{ID: 21, OrderID: 13, FlightID: 4, SeatNumber: "12A", Status: domain.TicketStatusBooked},
	}

	m.orders.On("GetByID", ctx, int64(13)).Return(order, nil).Once()
	m.orders.On("ListTickets", ctx, int64(13)).Return(tickets, nil).Once()
	m.locker.On("WithFlightLock", ctx, int64(4)).Return(nil).Once()
	m.orders.On("TransitionStatus", ctx, int64(13),
		[]domain.OrderStatus{domain.OrderStatusProcessing},
		domain.OrderStatusFailed).Return(true, nil).Once()
	m.reservations.On("Release", ctx, int64(4), []string{"12A"}).Return(nil).Once()
	m.orders.On("UpdateTicketStatuses", ctx, int64(13), domain.TicketStatusCancelled).Return(nil).Once()
	m.cache.On("InvalidateSeatMap", ctx, int64(4)).Return(nil).Once()
	m.producer.On("Publish", ctx, "order_events", "order-13", mock.Anything).Return(nil).Once()

	got, err := service.CancelBooking(ctx, 13, domain.CancelCausePayment)

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, got.Status)

	m.orders.AssertExpectations(t)
	m.reservations.AssertExpectations(t)
}

func TestBookingService_GetOrder_WithoutPayment(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	order := &domain.Order{ID: 11, FlightID: 4, Status: domain.OrderStatusFailed}

	m.orders.On("GetByID", ctx, int64(11)).Return(order, nil).Once()
	m.orders.On("ListTickets", ctx, int64(11)).Return([]domain.Ticket{}, nil).Once()
	m.payments.On("GetByOrderID", ctx, int64(11)).Return(nil, domain.ErrPaymentNotFound).Once()

	details, err := service.GetOrder(ctx, 11)

	assert.NoError(t, err)
	assert.Equal(t, order, details.Order)
	assert.Nil(t, details.Payment)
}

func TestBookingService_SeatMap_CacheHit(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	cached := &domain.SeatMap{FlightID: 4, AirplaneID: 2, TotalSeats: 4, AvailableSeats: 2}

	m.cache.On("GetSeatMap", ctx, int64(4)).Return(cached, nil).Once()

	seatMap, err := service.SeatMap(ctx, 4)

	assert.NoError(t, err)
	assert.Equal(t, cached, seatMap)

	m.flights.AssertNotCalled(t, "GetByID")
}

func TestBookingService_SeatMap_BuildsAndCaches(t *testing.T) {
	service, m := newBookingService()

	ctx := context.Background()
	now := time.Now()

	m.cache.On("GetSeatMap", ctx, int64(4)).Return(nil, nil).Once()
	m.flights.On("GetByID", ctx, int64(4)).Return(scheduledFlight(), nil).Once()
	m.flights.On("GetSeatLayout", ctx, int64(2)).Return(bookingLayout(), nil).Once()
	m.reservations.On("SeatStates", ctx, int64(4)).Return([]domain.FlightSeat{
		{ID: 1, FlightID: 4, SeatNumber: "12A", Status: domain.SeatStatusBooked, LockedAt: &now},
		{ID: 2, FlightID: 4, SeatNumber: "5C", Status: domain.SeatStatusReserved, LockedAt: &now},
	}, nil).Once()
	m.cache.On("SetSeatMap", ctx, mock.AnythingOfType("*domain.SeatMap")).Return(nil).Once()

	seatMap, err := service.SeatMap(ctx, 4)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), seatMap.FlightID)
	assert.Equal(t, 4, seatMap.TotalSeats)
	// 1A and 12B have no row, so they count as available.
	assert.Equal(t, 2, seatMap.AvailableSeats)
	assert.Len(t, seatMap.Seats, 4)

	byNumber := make(map[string]domain.SeatMapEntry)
	for _, entry := range seatMap.Seats {
		byNumber[entry.SeatNumber] = entry
	}
	assert.Equal(t, domain.SeatStatusAvailable, byNumber["1A"].Status)
	assert.Equal(t, int64(40000), byNumber["1A"].PriceCents)
	assert.Equal(t, domain.SeatStatusReserved, byNumber["5C"].Status)
	assert.Equal(t, int64(25000), byNumber["5C"].PriceCents)
	assert.Equal(t, domain.SeatStatusBooked, byNumber["12A"].Status)
	assert.Equal(t, int64(10000), byNumber["12A"].PriceCents)

	m.cache.AssertExpectations(t)
}
