package rules

import (
	"fmt"

	"FlightWatch/internal/model"
)

const (
	combinedDropPctThreshold = -8  // % vs yesterday's total
	combinedDropAbsThreshold = -25 // € vs yesterday's total

	combinedBelowAvgPctThreshold = -10 // % vs summed week averages
)

// EvaluateRoundTrip applies the combined-total rules to the summed
// outbound+return series. It works purely on summed figures and never
// looks at the individual leg evaluations.
func EvaluateRoundTrip(outbound, ret model.PriceHistory) model.Evaluation {
	current := outbound.Current + ret.Current
	if current <= 0 {
		return model.Evaluation{Reason: "invalid price"}
	}
	yesterday := outbound.Yesterday + ret.Yesterday
	weekAvg := weekAvgOrCurrent(outbound) + weekAvgOrCurrent(ret)

	delta := current - yesterday
	pct := 0.0
	if yesterday != 0 {
		pct = delta / yesterday * 100
	}

	if pct <= combinedDropPctThreshold || delta <= combinedDropAbsThreshold {
		return model.Evaluation{
			ShouldNotify: true,
			Priority:     model.PriorityHigh,
			Reason:       "ROUND_TRIP_DROP",
			Message: fmt.Sprintf("Round-trip total dropped to €%.2f (yesterday €%.2f, %+.2f%%)",
				current, yesterday, pct),
		}
	}

	if weekAvg != 0 {
		pctFromAvg := (current - weekAvg) / weekAvg * 100
		if pctFromAvg <= combinedBelowAvgPctThreshold {
			return model.Evaluation{
				ShouldNotify: true,
				Priority:     model.PriorityMedium,
				Reason:       "ROUND_TRIP_BELOW_AVG",
				Message: fmt.Sprintf("Round-trip total €%.2f is below the weekly average €%.2f (%+.2f%%)",
					current, weekAvg, pctFromAvg),
			}
		}
	}

	return model.Evaluation{Reason: "no rule matched"}
}

func weekAvgOrCurrent(h model.PriceHistory) float64 {
	if len(h.LastWeek) == 0 {
		return h.Current
	}
	sum := 0.0
	for _, p := range h.LastWeek {
		sum += p
	}
	return sum / float64(len(h.LastWeek))
}
