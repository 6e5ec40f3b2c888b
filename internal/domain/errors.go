package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFlightNotFound    = errors.New("flight not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrFlightNotBookable = errors.New("flight is not bookable")
)

// UnknownSeatError means requested seat numbers do not exist in the
// airplane's layout. A user input error, never retryable.
type UnknownSeatError struct {
	Seats []string
}

func (e *UnknownSeatError) Error() string {
	return fmt.Sprintf("unknown seats: %s", strings.Join(e.Seats, ", "))
}

// SeatConflictError means some requested seats were not AVAILABLE at
// lock time. The conflicting seat numbers are carried so the client
// can retry with different seats.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats not available: %s", strings.Join(e.Seats, ", "))
}

// InvalidOrderStateError means an operation was requested on an order
// outside the expected state.
type InvalidOrderStateError struct {
	OrderID int64
	Status  OrderStatus
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %d is in state %s", e.OrderID, e.Status)
}

// AmountMismatchError means the amount observed on a payment event does
// not match the recorded payment. It requires operator intervention;
// the order must not be auto-confirmed or auto-failed.
type AmountMismatchError struct {
	IntentID  string
	WantCents int64
	GotCents  int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment %s amount mismatch: expected %d, got %d", e.IntentID, e.WantCents, e.GotCents)
}
