package scraper

import (
	"context"
	"time"

	"FlightWatch/internal/model"
)

// PageDataSource abstracts the provider's booking UI. It is the only
// place that knows about selectors and page structure, so the
// extraction and fallback logic can be tested against fixture data.
//
// ReadDateCarousel returns one CandidateDate per rendered carousel cell
// in the requested window; cells that are not rendered at all are
// simply omitted. Prices are in the leg's native currency.
//
// ReadDetailedPrice performs the higher-fidelity read that simulates a
// user selecting the date. ok=false means the page loaded but no price
// was shown for that date; an error means the page itself failed
// structurally (markup changed, session blocked, timeout).
type PageDataSource interface {
	ReadDateCarousel(ctx context.Context, origin, destination string, window []time.Time) ([]model.CandidateDate, error)
	ReadDetailedPrice(ctx context.Context, origin, destination string, date time.Time) (price float64, ok bool, err error)
}

// StubSource returns controllable fixed data for development and testing.
type StubSource struct {
	Cells         map[string][]model.CandidateDate // keyed by route code
	DetailedPrice map[string]float64               // keyed by route code + "@" + date
	Err           error
}

func (s *StubSource) ReadDateCarousel(_ context.Context, origin, destination string, _ []time.Time) ([]model.CandidateDate, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Cells[model.RouteCode(origin, destination)], nil
}

func (s *StubSource) ReadDetailedPrice(_ context.Context, origin, destination string, date time.Time) (float64, bool, error) {
	if s.Err != nil {
		return 0, false, s.Err
	}
	key := model.RouteCode(origin, destination) + "@" + date.Format("2006-01-02")
	price, ok := s.DetailedPrice[key]
	return price, ok, nil
}
