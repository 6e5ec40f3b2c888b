package email

import (
	"context"
	"fmt"

	"github.com/Leonti1991/flightbooking/internal/kafka"
)

// Sender is a stand-in for the real delivery service: it prints the
// notification that would be sent for an order event.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.OrderEvent) error {
	fmt.Printf("send email to %s about %s for order %d on flight %d\n", event.Email, event.Type, event.OrderID, event.FlightID)
	return nil
}
