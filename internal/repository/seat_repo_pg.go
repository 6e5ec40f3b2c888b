package repository

import (
	"context"
	"time"

	"github.com/Leonti1991/flightbooking/internal/domain"
)

type SeatRepository interface {
	GetStates(ctx context.Context, flightID int64, seatNumbers []string) (map[string]domain.SeatStatus, error)
	Transition(ctx context.Context, flightID int64, seatNumbers []string, fromAllowed []domain.SeatStatus, to domain.SeatStatus, lockedAt *time.Time) ([]domain.FlightSeat, error)
	ExpireStale(ctx context.Context, flightID int64, olderThan time.Time) (int64, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightSeat, error)
	ListStaleFlights(ctx context.Context, olderThan time.Time) ([]int64, error)
}

type PGSeatRepository struct {
	store *Store
}

func NewSeatRepository(store *Store) SeatRepository {
	return &PGSeatRepository{store: store}
}

const seatColumns = `id, flight_id, seat_number, seat_status, locked_at, created_at, updated_at`

// GetStates reads the current status of the given seats. Seats without
// a row are reported as AVAILABLE: rows are created lazily on first
// touch.
func (r *PGSeatRepository) GetStates(ctx context.Context, flightID int64, seatNumbers []string) (map[string]domain.SeatStatus, error) {
	states := make(map[string]domain.SeatStatus, len(seatNumbers))
	for _, n := range seatNumbers {
		states[n] = domain.SeatStatusAvailable
	}

	rows, err := r.store.querier(ctx).Query(ctx, `SELECT seat_number, seat_status FROM flight_seats WHERE flight_id=$1 AND seat_number = ANY($2)`, flightID, seatNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var number string
		var status domain.SeatStatus
		if err := rows.Scan(&number, &status); err != nil {
			return nil, err
		}
		states[number] = status
	}
	return states, rows.Err()
}

// Transition is the atomic bulk seat-state update. It upserts missing
// rows as AVAILABLE, then moves every requested seat whose current
// status is in fromAllowed to the target status. If any seat is outside
// fromAllowed nothing is changed and a SeatConflictError naming the
// offending seats is returned. Must be called under the flight lock.
func (r *PGSeatRepository) Transition(ctx context.Context, flightID int64, seatNumbers []string, fromAllowed []domain.SeatStatus, to domain.SeatStatus, lockedAt *time.Time) ([]domain.FlightSeat, error) {
	q := r.store.querier(ctx)

	if _, err := q.Exec(ctx, `INSERT INTO flight_seats (flight_id, seat_number, seat_status)
		SELECT $1, unnest($2::text[]), 'AVAILABLE'
		ON CONFLICT (flight_id, seat_number) DO NOTHING`, flightID, seatNumbers); err != nil {
		return nil, err
	}

	allowed := statusStrings(fromAllowed)

	conflictRows, err := q.Query(ctx, `SELECT seat_number FROM flight_seats WHERE flight_id=$1 AND seat_number = ANY($2) AND NOT (seat_status = ANY($3))`, flightID, seatNumbers, allowed)
	if err != nil {
		return nil, err
	}
	var conflicts []string
	for conflictRows.Next() {
		var n string
		if err := conflictRows.Scan(&n); err != nil {
			conflictRows.Close()
			return nil, err
		}
		conflicts = append(conflicts, n)
	}
	conflictRows.Close()
	if err := conflictRows.Err(); err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &domain.SeatConflictError{Seats: conflicts}
	}

	rows, err := q.Query(ctx, `UPDATE flight_seats SET seat_status=$4, locked_at=$5, updated_at=now()
		WHERE flight_id=$1 AND seat_number = ANY($2) AND seat_status = ANY($3)
		RETURNING `+seatColumns, flightID, seatNumbers, allowed, to, lockedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

// ExpireStale releases RESERVED seats whose hold started before
// olderThan back to AVAILABLE. Must be called under the flight lock.
func (r *PGSeatRepository) ExpireStale(ctx context.Context, flightID int64, olderThan time.Time) (int64, error) {
	cmd, err := r.store.querier(ctx).Exec(ctx, `UPDATE flight_seats SET seat_status=$1, locked_at=NULL, updated_at=now()
		WHERE flight_id=$2 AND seat_status=$3 AND locked_at < $4`,
		domain.SeatStatusAvailable, flightID, domain.SeatStatusReserved, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.FlightSeat, error) {
	rows, err := r.store.querier(ctx).Query(ctx, `SELECT `+seatColumns+` FROM flight_seats WHERE flight_id=$1 ORDER BY seat_number`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

// ListStaleFlights returns flights that still hold expirable
// reservations, for the periodic worker sweep.
func (r *PGSeatRepository) ListStaleFlights(ctx context.Context, olderThan time.Time) ([]int64, error) {
	rows, err := r.store.querier(ctx).Query(ctx, `SELECT DISTINCT flight_id FROM flight_seats WHERE seat_status=$1 AND locked_at < $2`, domain.SeatStatusReserved, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func statusStrings(statuses []domain.SeatStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type seatRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSeats(rows seatRows) ([]domain.FlightSeat, error) {
	var seats []domain.FlightSeat
	for rows.Next() {
		var s domain.FlightSeat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.Status, &s.LockedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

var _ SeatRepository = (*PGSeatRepository)(nil)
