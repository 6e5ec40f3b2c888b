package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetSeatLayout(ctx context.Context, airplaneID int64) (domain.SeatLayout, error)
}

type PGFlightRepository struct {
	store *Store
}

func NewFlightRepository(store *Store) FlightRepository {
	return &PGFlightRepository{store: store}
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.store.querier(ctx).QueryRow(ctx, `SELECT id, airline_code, flight_number, airplane_id, from_airport, to_airport, departure_time, arrival_time, status, base_price_cents, created_at, updated_at FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.AirlineCode, &f.FlightNumber, &f.AirplaneID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.Status, &f.BasePriceCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetSeatLayout loads and validates the airplane's seat map. The layout
// is immutable once the airplane is in service, so validation here is
// the single checkpoint for it.
func (r *PGFlightRepository) GetSeatLayout(ctx context.Context, airplaneID int64) (domain.SeatLayout, error) {
	var raw []byte
	if err := r.store.querier(ctx).QueryRow(ctx, `SELECT seat_map FROM airplanes WHERE id=$1`, airplaneID).Scan(&raw); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("airplane %d not found", airplaneID)
		}
		return nil, err
	}

	var layout domain.SeatLayout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return nil, fmt.Errorf("decode seat map for airplane %d: %w", airplaneID, err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("seat map for airplane %d: %w", airplaneID, err)
	}
	return layout, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
