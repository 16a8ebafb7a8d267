package rules

import (
	"fmt"

	"FlightWatch/internal/model"
)

const (
	legHighWeight       = 30
	roundTripHighWeight = 40

	buyNowMinScore  = 60
	monitorMinScore = 30
)

// Recommend combines the two leg evaluations and the round-trip
// evaluation into a confidence-scored buy/wait/monitor call. Only
// HIGH-priority notifying evaluations carry weight.
func Recommend(outbound, ret, roundTrip model.Evaluation) model.Recommendation {
	score := 0
	if isHighSignal(outbound) {
		score += legHighWeight
	}
	if isHighSignal(ret) {
		score += legHighWeight
	}
	if isHighSignal(roundTrip) {
		score += roundTripHighWeight
	}
	if score > 100 {
		score = 100
	}

	switch {
	case score >= buyNowMinScore:
		return model.Recommendation{
			Verdict:    model.VerdictBuyNow,
			Confidence: score,
			Message:    fmt.Sprintf("Strong buy signal: book now (confidence %d%%)", score),
		}
	case score >= monitorMinScore:
		return model.Recommendation{
			Verdict:    model.VerdictMonitor,
			Confidence: score,
			Message:    fmt.Sprintf("Prices are moving: keep a close eye on them (confidence %d%%)", score),
		}
	default:
		// A weak positive signal is a strong signal to wait.
		return model.Recommendation{
			Verdict:    model.VerdictWait,
			Confidence: 100 - score,
			Message:    fmt.Sprintf("No buy signal: waiting looks safe (confidence %d%%)", 100-score),
		}
	}
}

func isHighSignal(e model.Evaluation) bool {
	return e.ShouldNotify && e.Priority == model.PriorityHigh
}
