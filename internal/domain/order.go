package domain

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Terminal reports whether no further order transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusFailed || s == OrderStatusCancelled
}

// Order is a purchase intent for a set of seats on one flight.
// UserID is nil for guest checkouts.
type Order struct {
	ID         int64
	UserID     *int64
	FlightID   int64
	Email      string
	Status     OrderStatus
	TotalCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CancelCause distinguishes who initiated a cancellation: a caller
// cancelling their order ends it CANCELLED, a failed payment ends it
// FAILED.
type CancelCause string

const (
	CancelCauseUser    CancelCause = "user"
	CancelCausePayment CancelCause = "payment"
)

type TicketStatus string

const (
	TicketStatusBooked    TicketStatus = "BOOKED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusCompleted TicketStatus = "COMPLETED"
)

// Ticket is one priced seat line item of an order. The price is
// computed at reservation time and frozen.
type Ticket struct {
	ID         int64
	OrderID    int64
	FlightID   int64
	SeatNumber string
	PriceCents int64
	Status     TicketStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
