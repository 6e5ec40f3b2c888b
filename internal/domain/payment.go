package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Payment is one-to-one with an order. IntentID is the external
// gateway's handle for the charge attempt.
type Payment struct {
	ID          int64
	OrderID     int64
	AmountCents int64
	Currency    string
	IntentID    string
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
