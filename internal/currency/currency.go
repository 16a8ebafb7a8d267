package currency

import "math"

// Currency is an ISO 4217 code.
type Currency string

const (
	EUR Currency = "EUR"
	PLN Currency = "PLN"
)

// Reporting is the single currency all persisted and evaluated prices
// are normalized to.
const Reporting = EUR

// Normalizer maps airports to their native currency and converts
// observed prices to the reporting currency using a fixed rate table.
type Normalizer struct {
	airports map[string]Currency
	rates    map[Currency]float64 // units of foreign currency per 1 EUR
}

// NewNormalizer returns a normalizer preloaded with the airports of the
// monitored route set and their conversion rates.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		airports: map[string]Currency{
			"ALC": EUR,
			"KRK": PLN,
			"WMI": PLN,
			"WAW": PLN,
			"GDN": PLN,
		},
		rates: map[Currency]float64{
			PLN: 4.20,
		},
	}
}

// ForAirport returns the native currency of the given airport code.
// Unknown codes default to the reporting currency: assuming EUR for an
// unmapped airport is less damaging than silently converting a price
// that was already in EUR.
func (n *Normalizer) ForAirport(code string) Currency {
	if c, ok := n.airports[code]; ok {
		return c
	}
	return Reporting
}

// ToReporting converts an amount in the given currency to the reporting
// currency, rounded to 2 decimal places.
func (n *Normalizer) ToReporting(amount float64, c Currency) float64 {
	if c == Reporting {
		return round2(amount)
	}
	rate, ok := n.rates[c]
	if !ok || rate == 0 {
		return round2(amount)
	}
	return round2(amount / rate)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
