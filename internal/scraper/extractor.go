package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"FlightWatch/internal/currency"
	"FlightWatch/internal/model"
)

// Extractor turns the noisy per-date carousel into a single resolved
// price per leg, with a deterministic nearest-date fallback.
type Extractor struct {
	source   PageDataSource
	currency *currency.Normalizer
	log      zerolog.Logger
}

func NewExtractor(source PageDataSource, n *currency.Normalizer, log zerolog.Logger) *Extractor {
	return &Extractor{source: source, currency: n, log: log}
}

// ExtractLeg resolves the price for targetDate on origin→destination,
// scanning a window of ±windowDays around it. When the target date has
// no usable price the nearest priced date is used instead; the returned
// Date reflects the date actually priced. Prices are converted to the
// reporting currency.
func (e *Extractor) ExtractLeg(ctx context.Context, origin, destination string, targetDate time.Time, windowDays int) (model.LegResult, error) {
	route := model.RouteCode(origin, destination)
	window := dateWindow(targetDate, windowDays)

	cells, err := e.source.ReadDateCarousel(ctx, origin, destination, window)
	if err != nil {
		return model.LegResult{}, fmt.Errorf("extract %s: %w", route, err)
	}

	native := e.currency.ForAirport(origin)
	candidates := make([]model.CandidateDate, 0, len(cells))
	target := -1
	for _, c := range cells {
		if c.HasPrice {
			c.Price = e.currency.ToReporting(c.Price, native)
		}
		candidates = append(candidates, c)
		if sameDate(c.Date, targetDate) {
			target = len(candidates) - 1
		}
	}

	// Second pass: simulate selecting the target date when the carousel
	// had no price for it.
	if target < 0 || !usable(candidates[target]) {
		price, ok, err := e.source.ReadDetailedPrice(ctx, origin, destination, targetDate)
		if err != nil {
			return model.LegResult{}, fmt.Errorf("extract %s: %w", route, err)
		}
		if ok {
			converted := e.currency.ToReporting(price, native)
			if target < 0 {
				candidates = append(candidates, candidateFor(targetDate))
				target = len(candidates) - 1
			}
			candidates[target].Price = converted
			candidates[target].HasPrice = true
			candidates[target].Available = true
		}
	}

	if target >= 0 && usable(candidates[target]) {
		return model.LegResult{
			Price:        candidates[target].Price,
			Date:         candidates[target].Date,
			Alternatives: candidates,
		}, nil
	}

	// Fallback: nearest usable date. Strict < keeps encounter order on
	// the rare exact tie.
	best := -1
	for i, c := range candidates {
		if !usable(c) {
			continue
		}
		if best < 0 || absDays(c.Date, targetDate) < absDays(candidates[best].Date, targetDate) {
			best = i
		}
	}
	if best < 0 {
		return model.LegResult{}, fmt.Errorf("extract %s on %s: %w",
			route, targetDate.Format("2006-01-02"), model.ErrNoFlightsAvailable)
	}

	e.log.Info().
		Str("route", route).
		Str("requested", targetDate.Format("2006-01-02")).
		Str("used", candidates[best].Date.Format("2006-01-02")).
		Float64("price", candidates[best].Price).
		Msg("target date had no price, using nearest available")

	return model.LegResult{
		Price:        candidates[best].Price,
		Date:         candidates[best].Date,
		Alternatives: candidates,
	}, nil
}

func usable(c model.CandidateDate) bool {
	return c.Available && c.HasPrice && c.Price > 0
}

func candidateFor(date time.Time) model.CandidateDate {
	return model.CandidateDate{
		Date:       date,
		DayOfWeek:  date.Weekday().String(),
		DayOfMonth: date.Day(),
		Month:      date.Month().String(),
	}
}

func dateWindow(center time.Time, radius int) []time.Time {
	window := make([]time.Time, 0, 2*radius+1)
	for offset := -radius; offset <= radius; offset++ {
		window = append(window, model.DateOnly(center.AddDate(0, 0, offset)))
	}
	return window
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func absDays(a, b time.Time) int {
	days := int(model.DateOnly(a).Sub(model.DateOnly(b)).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
