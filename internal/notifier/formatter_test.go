package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"FlightWatch/internal/model"
)

func TestFormatLatestPrices(t *testing.T) {
	observed := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	out := &model.PriceObservation{
		ObservedAt: observed,
		TravelDate: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		Price:      48.99,
		Route:      "ALC-KRK",
		Leg:        model.LegOutbound,
	}
	ret := &model.PriceObservation{
		ObservedAt: observed,
		TravelDate: time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		Price:      35.50,
		Route:      "KRK-ALC",
		Leg:        model.LegReturn,
	}

	msg := FormatLatestPrices(out, ret, &model.PriceStats{Avg: 52.10, Min: 44, Max: 61, Count: 14}, nil)

	for _, want := range []string{
		"ALC-KRK (2025-09-15)",
		"€48.99",
		"KRK-ALC (2025-09-21)",
		"€35.50",
		"Total: €84.49",
		"avg €52.10",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatLatestPricesPartial(t *testing.T) {
	out := &model.PriceObservation{
		ObservedAt: time.Now(),
		TravelDate: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		Price:      48.99,
		Route:      "ALC-KRK",
	}
	msg := FormatLatestPrices(out, nil, nil, nil)
	if !strings.Contains(msg, "Return: no data yet") {
		t.Errorf("missing-leg marker absent:\n%s", msg)
	}
	if strings.Contains(msg, "Total:") {
		t.Errorf("total must not render from a single leg:\n%s", msg)
	}
}

func TestFormatLatestPricesEmpty(t *testing.T) {
	msg := FormatLatestPrices(nil, nil, nil, nil)
	if !strings.Contains(msg, "No prices recorded yet") {
		t.Errorf("unexpected empty-state message: %q", msg)
	}
}

func TestFormatError(t *testing.T) {
	next := time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC)
	msg := FormatError("scrape", errors.New("page timed out"), next)
	for _, want := range []string{"PRICE CHECK FAILED", "Stage: scrape", "page timed out", "Next attempt: 2025-06-02 16:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	msg = FormatError("scrape", errors.New("boom"), time.Time{})
	if strings.Contains(msg, "Next attempt") {
		t.Errorf("zero next-run time must omit the schedule line:\n%s", msg)
	}
}
