package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusBoarding  FlightStatus = "BOARDING"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

type Flight struct {
	ID             int64
	AirlineCode    string
	FlightNumber   string
	AirplaneID     int64
	FromAirport    string
	ToAirport      string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	Status         FlightStatus
	BasePriceCents int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Bookable reports whether the flight still accepts new bookings.
func (f *Flight) Bookable() bool {
	switch f.Status {
	case FlightStatusScheduled, FlightStatusBoarding, FlightStatusDelayed:
		return true
	default:
		return false
	}
}
