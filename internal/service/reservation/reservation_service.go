package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/Leonti1991/flightbooking/internal/repository"
)

// ReservationUseCase turns requested seat numbers into held seats, or
// fails atomically, and owns the per-seat state machine:
//
//	AVAILABLE -reserve-> RESERVED -confirm-> BOOKED
//	RESERVED  -release/expire-> AVAILABLE
//	BOOKED    -release-> AVAILABLE
type ReservationUseCase interface {
	Reserve(ctx context.Context, flightID int64, layout domain.SeatLayout, seatNumbers []string) ([]domain.FlightSeat, error)
	Confirm(ctx context.Context, flightID int64, seatNumbers []string) error
	Release(ctx context.Context, flightID int64, seatNumbers []string) error
	ExpireFlight(ctx context.Context, flightID int64) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
	SeatStates(ctx context.Context, flightID int64) ([]domain.FlightSeat, error)
}

type Service struct {
	seats      repository.SeatRepository
	locker     repository.FlightLocker
	holdWindow time.Duration
	now        func() time.Time
}

type ServiceOption func(*Service)

// WithClock injects the time source, so expiry behaviour is
// deterministic in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(seats repository.SeatRepository, locker repository.FlightLocker, holdWindow time.Duration, opts ...ServiceOption) *Service {
	service := &Service{
		seats:      seats,
		locker:     locker,
		holdWindow: holdWindow,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reserve holds the requested seats for one buyer. All-or-nothing: if
// any seat is taken, no seat is reserved and the error names the
// conflicting seats. Stale holds from abandoned checkouts are expired
// first, so nobody is blocked forever by someone else's timeout.
func (s *Service) Reserve(ctx context.Context, flightID int64, layout domain.SeatLayout, seatNumbers []string) ([]domain.FlightSeat, error) {
	if len(seatNumbers) == 0 {
		return nil, errors.New("no seats requested")
	}

	seen := make(map[string]struct{}, len(seatNumbers))
	var unknown []string
	for _, n := range seatNumbers {
		if _, dup := seen[n]; dup {
			return nil, errors.New("duplicate seat numbers in request")
		}
		seen[n] = struct{}{}
		if _, ok := layout.ClassOf(n); !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, &domain.UnknownSeatError{Seats: unknown}
	}

	var reserved []domain.FlightSeat
	err := s.locker.WithFlightLock(ctx, flightID, func(ctx context.Context) error {
		now := s.now()
		if _, err := s.seats.ExpireStale(ctx, flightID, now.Add(-s.holdWindow)); err != nil {
			return err
		}

		states, err := s.seats.GetStates(ctx, flightID, seatNumbers)
		if err != nil {
			return err
		}
		var conflicts []string
		for _, n := range seatNumbers {
			if states[n] != domain.SeatStatusAvailable {
				conflicts = append(conflicts, n)
			}
		}
		if len(conflicts) > 0 {
			return &domain.SeatConflictError{Seats: conflicts}
		}

		reserved, err = s.seats.Transition(ctx, flightID, seatNumbers,
			[]domain.SeatStatus{domain.SeatStatusAvailable},
			domain.SeatStatusReserved, &now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// Confirm moves reserved seats to BOOKED and stamps the booking time.
// Seats already BOOKED are permitted, so a duplicate confirmation event
// is a no-op rather than an error.
func (s *Service) Confirm(ctx context.Context, flightID int64, seatNumbers []string) error {
	return s.locker.WithFlightLock(ctx, flightID, func(ctx context.Context) error {
		now := s.now()
		_, err := s.seats.Transition(ctx, flightID, seatNumbers,
			[]domain.SeatStatus{domain.SeatStatusReserved, domain.SeatStatusBooked},
			domain.SeatStatusBooked, &now)
		return err
	})
}

// Release returns seats to the open pool. Already-AVAILABLE seats are
// left untouched, not an error.
func (s *Service) Release(ctx context.Context, flightID int64, seatNumbers []string) error {
	return s.locker.WithFlightLock(ctx, flightID, func(ctx context.Context) error {
		_, err := s.seats.Transition(ctx, flightID, seatNumbers,
			[]domain.SeatStatus{domain.SeatStatusReserved, domain.SeatStatusBooked, domain.SeatStatusAvailable},
			domain.SeatStatusAvailable, nil)
		return err
	})
}

// ExpireFlight releases every reservation on the flight older than the
// hold window.
func (s *Service) ExpireFlight(ctx context.Context, flightID int64) (int64, error) {
	var released int64
	err := s.locker.WithFlightLock(ctx, flightID, func(ctx context.Context) error {
		var err error
		released, err = s.seats.ExpireStale(ctx, flightID, s.now().Add(-s.holdWindow))
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// SweepExpired is the periodic hygiene pass on top of the lazy expiry
// every reservation performs. Expiry stays correct without it; it only
// shortens how long abandoned holds linger.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	flightIDs, err := s.seats.ListStaleFlights(ctx, s.now().Add(-s.holdWindow))
	if err != nil {
		return 0, err
	}

	var total int64
	for _, id := range flightIDs {
		released, err := s.ExpireFlight(ctx, id)
		if err != nil {
			return total, err
		}
		total += released
	}
	return total, nil
}

// SeatStates returns the flight's seat rows after expiring stale holds,
// so the availability view never shows a lapsed reservation as taken.
func (s *Service) SeatStates(ctx context.Context, flightID int64) ([]domain.FlightSeat, error) {
	var seats []domain.FlightSeat
	err := s.locker.WithFlightLock(ctx, flightID, func(ctx context.Context) error {
		if _, err := s.seats.ExpireStale(ctx, flightID, s.now().Add(-s.holdWindow)); err != nil {
			return err
		}
		var err error
		seats, err = s.seats.ListByFlight(ctx, flightID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return seats, nil
}

var _ ReservationUseCase = (*Service)(nil)
