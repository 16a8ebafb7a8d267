package rules

import (
	"fmt"
	"math"
	"time"

	"FlightWatch/internal/model"
)

// Rule thresholds. Values are carried over from the tuned production
// configuration; they have no derivation beyond working well in practice.
const (
	dropPctThreshold = -10 // % vs yesterday
	dropAbsThreshold = -15 // € vs yesterday

	weekLowMinSamples = 5

	belowAvgPctThreshold = -8  // % vs week average
	belowAvgAbsThreshold = -12 // € vs week average

	spikePctThreshold = 15 // % vs yesterday
	spikeAbsThreshold = 20 // € vs yesterday

	volatilityRangePct = 25 // (max-min)/avg spread
	volatilityMovePct  = 5  // minimum day-over-day move

	digestQuietPct = 2 // |day-over-day| below this counts as "stable"
)

// legMetrics holds every figure the rules compare against, computed
// once per evaluation.
type legMetrics struct {
	current        float64
	yesterday      float64
	deltaYesterday float64
	pctYesterday   float64
	weekAvg        float64
	deltaWeekAvg   float64
	pctWeekAvg     float64
	weekMin        float64
	weekMax        float64
	weekSamples    int
	weekday        time.Weekday
}

// legRule pairs a predicate with the evaluation it produces. Rules are
// tried in order and the first match wins, so sharper signals (drop,
// new low) can never be shadowed by the digest.
type legRule struct {
	reason   string
	priority model.Priority
	match    func(legMetrics) bool
	message  func(legMetrics) string
}

// LegEvaluator converts one leg's price history into a notify decision.
type LegEvaluator struct {
	rules []legRule
	// Now is the clock used for the weekday-gated digest rule. Tests
	// override it; everything else leaves it as time.Now.
	Now func() time.Time
}

// NewLegEvaluator builds the ordered rule set. digestDays are the
// weekdays on which the low-priority scheduled digest rule may fire.
func NewLegEvaluator(digestDays []time.Weekday) *LegEvaluator {
	digest := make(map[time.Weekday]bool, len(digestDays))
	for _, d := range digestDays {
		digest[d] = true
	}

	e := &LegEvaluator{Now: time.Now}
	e.rules = []legRule{
		{
			reason:   "PRICE_DROP",
			priority: model.PriorityHigh,
			match: func(m legMetrics) bool {
				return m.pctYesterday <= dropPctThreshold || m.deltaYesterday <= dropAbsThreshold
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("Price dropped to €%.2f (yesterday €%.2f, %+.2f%%)",
					m.current, m.yesterday, m.pctYesterday)
			},
		},
		{
			reason:   "WEEK_LOW",
			priority: model.PriorityHigh,
			match: func(m legMetrics) bool {
				return m.weekSamples >= weekLowMinSamples && m.current < m.weekMin
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("New weekly low: €%.2f (previous low €%.2f)",
					m.current, m.weekMin)
			},
		},
		{
			reason:   "BELOW_WEEK_AVG",
			priority: model.PriorityMedium,
			match: func(m legMetrics) bool {
				return m.pctWeekAvg <= belowAvgPctThreshold && m.deltaWeekAvg <= belowAvgAbsThreshold
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("Price €%.2f is below the weekly average €%.2f (%+.2f%%)",
					m.current, m.weekAvg, m.pctWeekAvg)
			},
		},
		{
			reason:   "PRICE_SPIKE",
			priority: model.PriorityMedium,
			match: func(m legMetrics) bool {
				return m.pctYesterday >= spikePctThreshold || m.deltaYesterday >= spikeAbsThreshold
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("Price spiked to €%.2f (yesterday €%.2f, %+.2f%%)",
					m.current, m.yesterday, m.pctYesterday)
			},
		},
		{
			reason:   "HIGH_VOLATILITY",
			priority: model.PriorityLow,
			match: func(m legMetrics) bool {
				if m.weekSamples < weekLowMinSamples || m.weekAvg == 0 {
					return false
				}
				spread := (m.weekMax - m.weekMin) / m.weekAvg * 100
				return spread > volatilityRangePct && math.Abs(m.pctYesterday) >= volatilityMovePct
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("Volatile week: prices ranged €%.2f-€%.2f around an average of €%.2f",
					m.weekMin, m.weekMax, m.weekAvg)
			},
		},
		{
			reason:   "SCHEDULED_DIGEST",
			priority: model.PriorityLow,
			match: func(m legMetrics) bool {
				return digest[m.weekday] && math.Abs(m.pctYesterday) < digestQuietPct
			},
			message: func(m legMetrics) string {
				return fmt.Sprintf("Price check-in: €%.2f, stable since yesterday (€%.2f)",
					m.current, m.yesterday)
			},
		},
	}
	return e
}

// Evaluate runs the rule cascade over one leg's history. The first
// matching rule produces the only Evaluation; histories with a
// non-positive current price never notify.
func (e *LegEvaluator) Evaluate(h model.PriceHistory) model.Evaluation {
	if h.Current <= 0 {
		return model.Evaluation{Reason: "invalid price"}
	}
	m := computeLegMetrics(h, e.Now().Weekday())
	for _, r := range e.rules {
		if r.match(m) {
			return model.Evaluation{
				ShouldNotify: true,
				Priority:     r.priority,
				Reason:       r.reason,
				Message:      r.message(m),
			}
		}
	}
	return model.Evaluation{Reason: "no rule matched"}
}

func computeLegMetrics(h model.PriceHistory, weekday time.Weekday) legMetrics {
	m := legMetrics{
		current:   h.Current,
		yesterday: h.Yesterday,
		weekday:   weekday,
	}

	m.deltaYesterday = h.Current - h.Yesterday
	if h.Yesterday != 0 {
		m.pctYesterday = m.deltaYesterday / h.Yesterday * 100
	}

	m.weekSamples = len(h.LastWeek)
	if m.weekSamples == 0 {
		m.weekAvg = h.Current
		m.weekMin = h.Current
		m.weekMax = h.Current
	} else {
		m.weekMin = h.LastWeek[0]
		m.weekMax = h.LastWeek[0]
		sum := 0.0
		for _, p := range h.LastWeek {
			sum += p
			if p < m.weekMin {
				m.weekMin = p
			}
			if p > m.weekMax {
				m.weekMax = p
			}
		}
		m.weekAvg = sum / float64(m.weekSamples)
	}

	m.deltaWeekAvg = h.Current - m.weekAvg
	if m.weekAvg != 0 {
		m.pctWeekAvg = m.deltaWeekAvg / m.weekAvg * 100
	}
	return m
}
