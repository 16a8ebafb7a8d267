package model

import "time"

// LegType distinguishes the two directions of the monitored round trip.
type LegType string

const (
	LegOutbound LegType = "outbound"
	LegReturn   LegType = "return"
)

// PriceObservation is a single persisted price fact. Observations are
// append-only: they are written once after a successful extraction and
// never mutated.
type PriceObservation struct {
	ObservedAt time.Time
	TravelDate time.Time // calendar date, time-of-day is always midnight UTC
	Price      float64
	Route      string // e.g. "ALC-KRK"
	Leg        LegType
}

// CandidateDate is one cell of the provider's date carousel. Candidates
// are transient: only those with a usable price are persisted, as
// auxiliary observations.
type CandidateDate struct {
	Date       time.Time
	Price      float64
	HasPrice   bool
	Available  bool
	DayOfWeek  string
	DayOfMonth int
	Month      string
}

// LegResult is the resolved price for one leg. Date is the requested
// travel date or, when the fallback policy kicked in, the nearest date
// that actually had a price.
type LegResult struct {
	Price        float64
	Date         time.Time
	Alternatives []CandidateDate
}

// RoundTrip combines both legs of one extraction run.
type RoundTrip struct {
	Outbound LegResult
	Return   LegResult
}

// RouteCode builds the canonical route identifier for a leg.
func RouteCode(origin, destination string) string {
	return origin + "-" + destination
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
