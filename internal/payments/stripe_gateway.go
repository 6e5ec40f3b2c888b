package payments

import (
	"context"
	"strconv"

	"github.com/Leonti1991/flightbooking/internal/service/booking"
	"github.com/stripe/stripe-go/v82"
)

// StripeGateway implements the booking payment gateway against the
// Stripe PaymentIntents API.
type StripeGateway struct {
	client *stripe.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{client: stripe.NewClient(secretKey)}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, orderID int64) (booking.PaymentIntent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: map[string]string{"order_id": strconv.FormatInt(orderID, 10)},
	}
	intent, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return booking.PaymentIntent{}, err
	}
	return booking.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

var _ booking.PaymentGateway = (*StripeGateway)(nil)
