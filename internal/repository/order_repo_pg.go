package repository

import (
	"context"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateTotal(ctx context.Context, id int64, totalCents int64) error
	// TransitionStatus updates the order status only if the current
	// status is in fromAllowed and reports whether a row changed.
	TransitionStatus(ctx context.Context, id int64, fromAllowed []domain.OrderStatus, to domain.OrderStatus) (bool, error)
	CreateTickets(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error)
	ListTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error)
	UpdateTicketStatuses(ctx context.Context, orderID int64, to domain.TicketStatus) error
}

type PGOrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) OrderRepository {
	return &PGOrderRepository{store: store}
}

const orderColumns = `id, user_id, flight_id, email, status, total_cents, created_at, updated_at`

func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.store.querier(ctx).QueryRow(ctx, `INSERT INTO orders (user_id, flight_id, email, status, total_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.FlightID, order.Email, order.Status, order.TotalCents).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.store.querier(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	var o domain.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.FlightID, &o.Email, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGOrderRepository) UpdateTotal(ctx context.Context, id int64, totalCents int64) error {
	_, err := r.store.querier(ctx).Exec(ctx, `UPDATE orders SET total_cents=$1, updated_at=now() WHERE id=$2`, totalCents, id)
	return err
}

func (r *PGOrderRepository) TransitionStatus(ctx context.Context, id int64, fromAllowed []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	allowed := make([]string, len(fromAllowed))
	for i, s := range fromAllowed {
		allowed[i] = string(s)
	}
	cmd, err := r.store.querier(ctx).Exec(ctx, `UPDATE orders SET status=$1, updated_at=now() WHERE id=$2 AND status = ANY($3)`, to, id, allowed)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGOrderRepository) CreateTickets(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	q := r.store.querier(ctx)
	created := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if err := q.QueryRow(ctx, `INSERT INTO tickets (order_id, flight_id, seat_number, price_cents, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`,
			t.OrderID, t.FlightID, t.SeatNumber, t.PriceCents, t.Status).
			Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	return created, nil
}

func (r *PGOrderRepository) ListTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	rows, err := r.store.querier(ctx).Query(ctx, `SELECT id, order_id, flight_id, seat_number, price_cents, status, created_at, updated_at FROM tickets WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.OrderID, &t.FlightID, &t.SeatNumber, &t.PriceCents, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *PGOrderRepository) UpdateTicketStatuses(ctx context.Context, orderID int64, to domain.TicketStatus) error {
	_, err := r.store.querier(ctx).Exec(ctx, `UPDATE tickets SET status=$1, updated_at=now() WHERE order_id=$2`, to, orderID)
	return err
}

var _ OrderRepository = (*PGOrderRepository)(nil)
