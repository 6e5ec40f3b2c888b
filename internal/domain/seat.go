package domain

import (
	"fmt"
	"time"
)

type SeatClass string

const (
	SeatClassEconomy        SeatClass = "economy"
	SeatClassPremiumEconomy SeatClass = "premium_economy"
	SeatClassBusiness       SeatClass = "business"
	SeatClassFirst          SeatClass = "first"
)

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassPremiumEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	}
	return false
}

// SeatAssignment is one entry of an airplane's seat layout.
type SeatAssignment struct {
	SeatNumber string    `json:"seat_number"`
	Class      SeatClass `json:"seat_class"`
}

// SeatLayout is the ordered seat configuration of an airplane type.
// It is immutable once the airplane is in service, so it is validated
// once when loaded, not on every read.
type SeatLayout []SeatAssignment

// Validate checks seat numbers are unique and classes are known.
func (l SeatLayout) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, s := range l {
		if s.SeatNumber == "" {
			return fmt.Errorf("seat layout contains an empty seat number")
		}
		if _, ok := seen[s.SeatNumber]; ok {
			return fmt.Errorf("duplicate seat number %q in layout", s.SeatNumber)
		}
		seen[s.SeatNumber] = struct{}{}
		if !s.Class.Valid() {
			return fmt.Errorf("unknown seat class %q for seat %s", s.Class, s.SeatNumber)
		}
	}
	return nil
}

// ClassOf returns the class of a seat and whether the seat exists in the layout.
func (l SeatLayout) ClassOf(seatNumber string) (SeatClass, bool) {
	for _, s := range l {
		if s.SeatNumber == seatNumber {
			return s.Class, true
		}
	}
	return "", false
}

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
	SeatStatusBooked    SeatStatus = "BOOKED"
	SeatStatusCancelled SeatStatus = "CANCELLED"
)

// FlightSeat is the mutable per-flight, per-seat state record.
// Rows are created lazily: a seat without a row is AVAILABLE.
type FlightSeat struct {
	ID         int64
	FlightID   int64
	SeatNumber string
	Status     SeatStatus
	LockedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SeatMapEntry is one seat of the client-facing availability view.
type SeatMapEntry struct {
	SeatNumber string     `json:"seat_number"`
	Class      SeatClass  `json:"seat_class"`
	Status     SeatStatus `json:"status"`
	PriceCents int64      `json:"price_cents"`
}

// SeatMap is the availability view for one flight: the airplane layout
// joined with live seat states and class prices.
type SeatMap struct {
	FlightID       int64          `json:"flight_id"`
	AirplaneID     int64          `json:"airplane_id"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	Seats          []SeatMapEntry `json:"seats"`
}
