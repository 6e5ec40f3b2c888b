package payments

import (
	"context"
	"errors"
	"log"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/Leonti1991/flightbooking/internal/repository"
)

// Orchestrator is the slice of the booking service the reconciler
// drives.
type Orchestrator interface {
	ConfirmBooking(ctx context.Context, orderID int64) (*domain.Order, error)
	CancelBooking(ctx context.Context, orderID int64, cause domain.CancelCause) (*domain.Order, error)
}

// Reconciler translates the gateway's asynchronous payment events into
// exactly-once order transitions. Events arrive at least once and in
// any order; every handler re-checks the current payment status and
// treats "already terminal" as success, never as an error to retry.
type Reconciler struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	bookings Orchestrator
}

func NewReconciler(payments repository.PaymentRepository, orders repository.OrderRepository, bookings Orchestrator) *Reconciler {
	return &Reconciler{payments: payments, orders: orders, bookings: bookings}
}

// OnSucceeded marks the payment SUCCEEDED and confirms the booking.
// Duplicate deliveries are no-ops; an unknown intent is logged and
// acknowledged, since retrying will not create the missing record.
func (r *Reconciler) OnSucceeded(ctx context.Context, intentID string, amountCents int64) error {
	payment, err := r.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Printf("payment event for unknown intent %s, ignoring", intentID)
			return nil
		}
		return err
	}

	if payment.Status == domain.PaymentStatusSucceeded {
		return nil
	}
	if payment.Status.Terminal() {
		log.Printf("stale success event for intent %s in state %s, ignoring", intentID, payment.Status)
		return nil
	}

	order, err := r.orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusProcessing {
		if order.Status == domain.OrderStatusConfirmed {
			return nil
		}
		// A paid order that already failed or was cancelled needs a
		// human: confirming it would resell released seats.
		return &domain.InvalidOrderStateError{OrderID: order.ID, Status: order.Status}
	}
	if amountCents != payment.AmountCents {
		return &domain.AmountMismatchError{IntentID: intentID, WantCents: payment.AmountCents, GotCents: amountCents}
	}

	ok, err := r.payments.TransitionStatus(ctx, intentID, domain.PaymentStatusPending, domain.PaymentStatusSucceeded)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race with a duplicate delivery.
		return nil
	}

	_, err = r.bookings.ConfirmBooking(ctx, payment.OrderID)
	return err
}

func (r *Reconciler) OnFailed(ctx context.Context, intentID, reason string) error {
	return r.settle(ctx, intentID, domain.PaymentStatusFailed, reason)
}

func (r *Reconciler) OnCancelled(ctx context.Context, intentID, reason string) error {
	return r.settle(ctx, intentID, domain.PaymentStatusCancelled, reason)
}

// OnExpired handles an intent the gateway timed out. Recorded as a
// cancelled payment; the seats are released either way.
func (r *Reconciler) OnExpired(ctx context.Context, intentID string) error {
	return r.settle(ctx, intentID, domain.PaymentStatusCancelled, "expired")
}

func (r *Reconciler) settle(ctx context.Context, intentID string, to domain.PaymentStatus, reason string) error {
	payment, err := r.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Printf("payment event for unknown intent %s, ignoring", intentID)
			return nil
		}
		return err
	}

	if payment.Status.Terminal() {
		// Includes a stale failure arriving after a success: the order
		// stays CONFIRMED and the event is acknowledged.
		return nil
	}

	ok, err := r.payments.TransitionStatus(ctx, intentID, domain.PaymentStatusPending, to)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	log.Printf("payment %s settled %s (%s), releasing order %d", intentID, to, reason, payment.OrderID)
	_, err = r.bookings.CancelBooking(ctx, payment.OrderID, domain.CancelCausePayment)
	return err
}
