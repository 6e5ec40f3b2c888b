package repository

import (
	"context"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)
	// TransitionStatus moves the payment out of PENDING exactly once:
	// the update is conditional on the current status so duplicate
	// webhook deliveries race safely.
	TransitionStatus(ctx context.Context, intentID string, from, to domain.PaymentStatus) (bool, error)
}

type PGPaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) PaymentRepository {
	return &PGPaymentRepository{store: store}
}

const paymentColumns = `id, order_id, amount_cents, currency, intent_id, status, created_at, updated_at`

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.store.querier(ctx).QueryRow(ctx, `INSERT INTO payments (order_id, amount_cents, currency, intent_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		payment.OrderID, payment.AmountCents, payment.Currency, payment.IntentID, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE intent_id=$1`, intentID)
}

func (r *PGPaymentRepository) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=$1`, orderID)
}

func (r *PGPaymentRepository) get(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	row := r.store.querier(ctx).QueryRow(ctx, query, arg)
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.OrderID, &p.AmountCents, &p.Currency, &p.IntentID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) TransitionStatus(ctx context.Context, intentID string, from, to domain.PaymentStatus) (bool, error) {
	cmd, err := r.store.querier(ctx).Exec(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE intent_id=$2 AND status=$3`, to, intentID, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
