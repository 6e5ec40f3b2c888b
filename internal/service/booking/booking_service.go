package booking

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/Leonti1991/flightbooking/internal/kafka"
	"github.com/Leonti1991/flightbooking/internal/pricing"
	"github.com/Leonti1991/flightbooking/internal/repository"
	"github.com/Leonti1991/flightbooking/internal/service/reservation"
)

// BookingUseCase owns the Order+Ticket aggregate lifecycle.
type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, orderID int64) (*domain.Order, error)
	CancelBooking(ctx context.Context, orderID int64, cause domain.CancelCause) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*OrderDetails, error)
	SeatMap(ctx context.Context, flightID int64) (*domain.SeatMap, error)
}

// PaymentIntent is the gateway's handle for one charge attempt.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentGateway creates charge intents with the external provider.
// The outcome arrives later through the payment reconciler.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, orderID int64) (PaymentIntent, error)
}

type SeatMapCache interface {
	GetSeatMap(ctx context.Context, flightID int64) (*domain.SeatMap, error)
	SetSeatMap(ctx context.Context, seatMap *domain.SeatMap) error
	InvalidateSeatMap(ctx context.Context, flightID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	FlightID    int64    `json:"flight_id"`
	SeatNumbers []string `json:"seat_numbers"`
	UserID      *int64   `json:"user_id,omitempty"`
	Email       string   `json:"email"`
}

type CreateBookingResult struct {
	Order        *domain.Order
	Tickets      []domain.Ticket
	Payment      *domain.Payment
	ClientSecret string
}

type OrderDetails struct {
	Order   *domain.Order
	Tickets []domain.Ticket
	Payment *domain.Payment
}

type BookingService struct {
	flights      repository.FlightRepository
	orders       repository.OrderRepository
	payments     repository.PaymentRepository
	reservations reservation.ReservationUseCase
	locker       repository.FlightLocker
	pricer       *pricing.Engine
	gateway      PaymentGateway
	cache        SeatMapCache
	producer     Producer
	ordersTopic  string
	currency     string
	now          func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	flights repository.FlightRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	reservations reservation.ReservationUseCase,
	locker repository.FlightLocker,
	pricer *pricing.Engine,
	gateway PaymentGateway,
	cache SeatMapCache,
	producer Producer,
	ordersTopic string,
	currency string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		flights:      flights,
		orders:       orders,
		payments:     payments,
		reservations: reservations,
		locker:       locker,
		pricer:       pricer,
		gateway:      gateway,
		cache:        cache,
		producer:     producer,
		ordersTopic:  ordersTopic,
		currency:     currency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// errAlreadySettled aborts a lock-scoped transition when a concurrent
// caller already moved the order. The caller treats it as a no-op.
var errAlreadySettled = errors.New("order already settled")

// CreateBooking reserves the requested seats, prices them, and opens a
// payment intent for the total. Reservation, ticket creation and the
// order total are written in one flight-lock transaction, so the total
// is always consistent with the seats actually held.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if len(input.SeatNumbers) == 0 {
		return nil, errors.New("at least one seat is required")
	}
	if input.Email == "" {
		return nil, errors.New("email is required")
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if !flight.Bookable() {
		return nil, domain.ErrFlightNotBookable
	}
	layout, err := s.flights.GetSeatLayout(ctx, flight.AirplaneID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:   input.UserID,
		FlightID: flight.ID,
		Email:    input.Email,
		Status:   domain.OrderStatusProcessing,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	var tickets []domain.Ticket
	err = s.locker.WithFlightLock(ctx, flight.ID, func(ctx context.Context) error {
		seats, err := s.reservations.Reserve(ctx, flight.ID, layout, input.SeatNumbers)
		if err != nil {
			return err
		}

		var total int64
		pending := make([]domain.Ticket, 0, len(seats))
		for _, seat := range seats {
			class, _ := layout.ClassOf(seat.SeatNumber)
			price := s.pricer.Price(flight.BasePriceCents, class)
			total += price
			pending = append(pending, domain.Ticket{
				OrderID:    order.ID,
				FlightID:   flight.ID,
				SeatNumber: seat.SeatNumber,
				PriceCents: price,
				Status:     domain.TicketStatusBooked,
			})
		}

		tickets, err = s.orders.CreateTickets(ctx, pending)
		if err != nil {
			return err
		}
		if err := s.orders.UpdateTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.TotalCents = total
		return nil
	})
	if err != nil {
		// The reservation rolled back whole; fail the order rather
		// than leave it stranded in PROCESSING.
		if _, ferr := s.orders.TransitionStatus(ctx, order.ID, []domain.OrderStatus{domain.OrderStatusProcessing}, domain.OrderStatusFailed); ferr != nil {
			log.Printf("mark order %d failed: %v", order.ID, ferr)
		}
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, order.TotalCents, s.currency, order.ID)
	if err != nil {
		if _, cerr := s.CancelBooking(ctx, order.ID, domain.CancelCausePayment); cerr != nil {
			log.Printf("cancel order %d after intent failure: %v", order.ID, cerr)
		}
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:     order.ID,
		AmountCents: order.TotalCents,
		Currency:    s.currency,
		IntentID:    intent.ID,
		Status:      domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if _, cerr := s.CancelBooking(ctx, order.ID, domain.CancelCausePayment); cerr != nil {
			log.Printf("cancel order %d after payment create failure: %v", order.ID, cerr)
		}
		return nil, err
	}

	s.invalidateSeatMap(ctx, flight.ID)
	s.publish(ctx, "order_created", order, input.SeatNumbers)

	return &CreateBookingResult{
		Order:        order,
		Tickets:      tickets,
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// ConfirmBooking finalizes a paid order: seats go BOOKED, tickets go
// COMPLETED, the order goes CONFIRMED, all in one flight-lock
// transaction. Orders already out of PROCESSING are returned unchanged.
func (s *BookingService) ConfirmBooking(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusProcessing {
		return order, nil
	}

	tickets, err := s.orders.ListTickets(ctx, orderID)
	if err != nil {
		return nil, err
	}
	seatNumbers := ticketSeats(tickets)

	err = s.locker.WithFlightLock(ctx, order.FlightID, func(ctx context.Context) error {
		ok, err := s.orders.TransitionStatus(ctx, order.ID, []domain.OrderStatus{domain.OrderStatusProcessing}, domain.OrderStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadySettled
		}
		if err := s.reservations.Confirm(ctx, order.FlightID, seatNumbers); err != nil {
			return err
		}
		return s.orders.UpdateTicketStatuses(ctx, order.ID, domain.TicketStatusCompleted)
	})
	if errors.Is(err, errAlreadySettled) {
		return s.orders.GetByID(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusConfirmed
	s.invalidateSeatMap(ctx, order.FlightID)
	s.publish(ctx, "order_confirmed", order, seatNumbers)
	return order, nil
}

// CancelBooking releases the order's seats and voids its tickets. A
// payment-initiated cancellation only applies to PROCESSING orders and
// ends them FAILED; a caller-initiated one may also cancel a CONFIRMED
// order. Orders already outside the allowed states are returned
// unchanged.
func (s *BookingService) CancelBooking(ctx context.Context, orderID int64, cause domain.CancelCause) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	fromAllowed := []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusConfirmed}
	target := domain.OrderStatusCancelled
	if cause == domain.CancelCausePayment {
		fromAllowed = []domain.OrderStatus{domain.OrderStatusProcessing}
		target = domain.OrderStatusFailed
	}
	if !statusIn(order.Status, fromAllowed) {
		return order, nil
	}

	tickets, err := s.orders.ListTickets(ctx, orderID)
	if err != nil {
		return nil, err
	}
	seatNumbers := ticketSeats(tickets)

	err = s.locker.WithFlightLock(ctx, order.FlightID, func(ctx context.Context) error {
		ok, err := s.orders.TransitionStatus(ctx, order.ID, fromAllowed, target)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadySettled
		}
		if len(seatNumbers) > 0 {
			if err := s.reservations.Release(ctx, order.FlightID, seatNumbers); err != nil {
				return err
			}
		}
		return s.orders.UpdateTicketStatuses(ctx, order.ID, domain.TicketStatusCancelled)
	})
	if errors.Is(err, errAlreadySettled) {
		return s.orders.GetByID(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	order.Status = target
	s.invalidateSeatMap(ctx, order.FlightID)
	s.publish(ctx, "order_cancelled", order, seatNumbers)
	return order, nil
}

func (s *BookingService) GetOrder(ctx context.Context, orderID int64) (*OrderDetails, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tickets, err := s.orders.ListTickets(ctx, orderID)
	if err != nil {
		return nil, err
	}
	details := &OrderDetails{Order: order, Tickets: tickets}

	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}
	details.Payment = payment
	return details, nil
}

// SeatMap returns the layout joined with live seat states and prices,
// cached per flight.
func (s *BookingService) SeatMap(ctx context.Context, flightID int64) (*domain.SeatMap, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSeatMap(ctx, flightID); err == nil && cached != nil {
			return cached, nil
		}
	}

	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	layout, err := s.flights.GetSeatLayout(ctx, flight.AirplaneID)
	if err != nil {
		return nil, err
	}
	seats, err := s.reservations.SeatStates(ctx, flightID)
	if err != nil {
		return nil, err
	}

	states := make(map[string]domain.SeatStatus, len(seats))
	for _, seat := range seats {
		states[seat.SeatNumber] = seat.Status
	}
	quotes := s.pricer.QuoteLayout(flight.BasePriceCents, layout)

	seatMap := &domain.SeatMap{
		FlightID:   flight.ID,
		AirplaneID: flight.AirplaneID,
		TotalSeats: len(layout),
		Seats:      make([]domain.SeatMapEntry, 0, len(layout)),
	}
	for _, assignment := range layout {
		status, ok := states[assignment.SeatNumber]
		if !ok {
			status = domain.SeatStatusAvailable
		}
		if status == domain.SeatStatusAvailable {
			seatMap.AvailableSeats++
		}
		seatMap.Seats = append(seatMap.Seats, domain.SeatMapEntry{
			SeatNumber: assignment.SeatNumber,
			Class:      assignment.Class,
			Status:     status,
			PriceCents: quotes[assignment.SeatNumber],
		})
	}

	if s.cache != nil {
		_ = s.cache.SetSeatMap(ctx, seatMap)
	}
	return seatMap, nil
}

func (s *BookingService) invalidateSeatMap(ctx context.Context, flightID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSeatMap(ctx, flightID); err != nil {
		log.Printf("invalidate seat map for flight %d: %v", flightID, err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, order *domain.Order, seats []string) {
	if s.producer == nil || s.ordersTopic == "" {
		return
	}
	event := kafka.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		FlightID:   order.FlightID,
		Seats:      seats,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Email:      order.Email,
		OccurredAt: s.now(),
	}
	if err := s.producer.Publish(ctx, s.ordersTopic, orderKey(order.ID), event); err != nil {
		log.Printf("publish %s event for order %d: %v", eventType, order.ID, err)
	}
}

func orderKey(orderID int64) string {
	return "order-" + strconv.FormatInt(orderID, 10)
}

func ticketSeats(tickets []domain.Ticket) []string {
	seats := make([]string, 0, len(tickets))
	for _, t := range tickets {
		seats = append(seats, t.SeatNumber)
	}
	return seats
}

func statusIn(status domain.OrderStatus, set []domain.OrderStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

var _ BookingUseCase = (*BookingService)(nil)
