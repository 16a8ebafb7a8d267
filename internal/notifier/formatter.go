package notifier

import (
	"fmt"
	"strings"
	"time"

	"FlightWatch/internal/model"
)

// FormatLatestPrices renders the /price reply from the most recent
// stored observation per leg, with 30-day context where available.
func FormatLatestPrices(outbound, ret *model.PriceObservation, outStats, retStats *model.PriceStats) string {
	if outbound == nil && ret == nil {
		return "No prices recorded yet. The first check has not run."
	}

	var b strings.Builder
	b.WriteString("💶 LATEST PRICES\n")

	writeLeg(&b, "🛫 Outbound", outbound, outStats)
	writeLeg(&b, "🛬 Return", ret, retStats)

	if outbound != nil && ret != nil {
		fmt.Fprintf(&b, "\n💰 Total: €%.2f", outbound.Price+ret.Price)
	}
	return b.String()
}

func writeLeg(b *strings.Builder, header string, obs *model.PriceObservation, stats *model.PriceStats) {
	if obs == nil {
		fmt.Fprintf(b, "\n%s: no data yet\n", header)
		return
	}
	fmt.Fprintf(b, "\n%s %s (%s)\n€%.2f — checked %s\n",
		header, obs.Route, obs.TravelDate.Format("2006-01-02"),
		obs.Price, obs.ObservedAt.Format("2006-01-02 15:04"))
	if stats != nil && stats.Count > 0 {
		fmt.Fprintf(b, "30d: avg €%.2f, min €%.2f, max €%.2f (%d checks)\n",
			stats.Avg, stats.Min, stats.Max, stats.Count)
	}
}

// FormatError renders the message broadcast when a check fails.
func FormatError(stage string, cause error, nextRun time.Time) string {
	var b strings.Builder
	b.WriteString("⚠️ PRICE CHECK FAILED\n\n")
	fmt.Fprintf(&b, "Stage: %s\n", stage)
	fmt.Fprintf(&b, "Error: %v\n", cause)
	if !nextRun.IsZero() {
		fmt.Fprintf(&b, "\nNext attempt: %s", nextRun.Format("2006-01-02 15:04"))
	}
	return b.String()
}
