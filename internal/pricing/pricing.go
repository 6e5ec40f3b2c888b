package pricing

import (
	"github.com/Leonti1991/flightbooking/internal/domain"
)

// Multipliers are kept in hundredths (150 = 1.50x) so that prices stay
// in integer cents end to end.
const (
	MultiplierEconomy        = 100
	MultiplierPremiumEconomy = 150

	DefaultMultiplierBusiness = 250
	DefaultMultiplierFirst    = 400
)

// Engine computes the ticket price for a seat class from the flight's
// base price. It is a pure function holder: no state mutation, no I/O.
type Engine struct {
	multipliers map[domain.SeatClass]int64
}

// NewEngine builds an engine with the canonical multiplier table.
// Business and first multipliers are configurable; zero values fall
// back to the defaults.
func NewEngine(businessMult, firstMult int64) *Engine {
	if businessMult <= 0 {
		businessMult = DefaultMultiplierBusiness
	}
	if firstMult <= 0 {
		firstMult = DefaultMultiplierFirst
	}
	return &Engine{
		multipliers: map[domain.SeatClass]int64{
			domain.SeatClassEconomy:        MultiplierEconomy,
			domain.SeatClassPremiumEconomy: MultiplierPremiumEconomy,
			domain.SeatClassBusiness:       businessMult,
			domain.SeatClassFirst:          firstMult,
		},
	}
}

// Price returns the seat price in cents: baseCents * multiplier,
// rounded half-up to a whole cent. Unknown classes price as economy.
func (e *Engine) Price(baseCents int64, class domain.SeatClass) int64 {
	mult, ok := e.multipliers[class]
	if !ok {
		mult = MultiplierEconomy
	}
	return (baseCents*mult + 50) / 100
}

// QuoteLayout prices every seat of a layout against one base price.
func (e *Engine) QuoteLayout(baseCents int64, layout domain.SeatLayout) map[string]int64 {
	quotes := make(map[string]int64, len(layout))
	for _, s := range layout {
		quotes[s.SeatNumber] = e.Price(baseCents, s.Class)
	}
	return quotes
}
