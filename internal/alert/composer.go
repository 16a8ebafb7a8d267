package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"FlightWatch/internal/config"
	"FlightWatch/internal/model"
	"FlightWatch/internal/rules"
)

const (
	// historyDepth covers the current observation plus the seven that
	// feed the weekly figures.
	historyDepth    = 8
	minObservations = 2

	totalChangePctThreshold = 5  // |%| vs the prior run's total
	totalChangeAbsThreshold = 20 // |€| vs the prior run's total

	statsWindowDays = 30
)

// HistorySource is the slice of the repository the composer reads.
type HistorySource interface {
	ObservationsByRoute(route string, leg model.LegType, travelDate time.Time, limit int) ([]model.PriceObservation, error)
	Stats(travelDate time.Time, leg model.LegType, route string, windowDays int) (*model.PriceStats, error)
}

// Result is one run's ordered, deduplicated alert output.
type Result struct {
	Messages       []string
	Recommendation model.Recommendation
}

// Composer turns a freshly assembled round trip plus its stored history
// into the list of messages the notifier will deliver.
type Composer struct {
	history   HistorySource
	legEval   *rules.LegEvaluator
	digestDay time.Weekday
	log       zerolog.Logger

	// Now is the clock used for the weekly digest gate; tests override it.
	Now func() time.Time
}

func NewComposer(history HistorySource, legEval *rules.LegEvaluator, digestDay time.Weekday, log zerolog.Logger) *Composer {
	return &Composer{
		history:   history,
		legEval:   legEval,
		digestDay: digestDay,
		log:       log,
		Now:       time.Now,
	}
}

// Compose evaluates both legs and the combined total. The digest is
// strictly a fallback: it is only considered when no rule-triggered
// alert fired, and it never displaces one.
func (c *Composer) Compose(route config.RouteConfig, trip model.RoundTrip) (Result, error) {
	var messages []string

	outHist, outOK, err := c.legHistory(route.OutboundRoute(), model.LegOutbound, trip.Outbound.Date)
	if err != nil {
		return Result{}, err
	}
	retHist, retOK, err := c.legHistory(route.ReturnRoute(), model.LegReturn, trip.Return.Date)
	if err != nil {
		return Result{}, err
	}

	var outEval, retEval, rtEval model.Evaluation

	if outOK {
		outEval = c.legEval.Evaluate(outHist)
		if outEval.ShouldNotify {
			messages = append(messages, legMessage("🛫 OUTBOUND FLIGHT", trip.Outbound, outEval))
		}
	}
	if retOK {
		retEval = c.legEval.Evaluate(retHist)
		if retEval.ShouldNotify {
			messages = append(messages, legMessage("🛬 RETURN FLIGHT", trip.Return, retEval))
		}
	}

	if outOK && retOK {
		rtEval = rules.EvaluateRoundTrip(outHist, retHist)
		if rtEval.ShouldNotify {
			messages = append(messages, rtEval.Message)
		}
		if msg, ok := totalChangeMessage(trip, outHist, retHist); ok {
			messages = append(messages, msg)
		}
	}

	rec := rules.Recommend(outEval, retEval, rtEval)
	if len(messages) > 0 && rec.Verdict != model.VerdictWait {
		messages = append(messages, rec.Message)
	}

	if len(messages) == 0 && c.Now().Weekday() == c.digestDay {
		digest, err := c.weeklyDigest(route, trip)
		if err != nil {
			return Result{}, err
		}
		messages = append(messages, digest)
	}

	c.log.Info().
		Int("messages", len(messages)).
		Str("verdict", string(rec.Verdict)).
		Msg("alerts composed")

	return Result{Messages: messages, Recommendation: rec}, nil
}

// legHistory derives the evaluation input from stored observations.
// ok=false means the leg has too little history to evaluate yet.
func (c *Composer) legHistory(route string, leg model.LegType, travelDate time.Time) (model.PriceHistory, bool, error) {
	observations, err := c.history.ObservationsByRoute(route, leg, travelDate, historyDepth)
	if err != nil {
		return model.PriceHistory{}, false, fmt.Errorf("history for %s %s: %w", route, leg, err)
	}
	if len(observations) < minObservations {
		return model.PriceHistory{}, false, nil
	}
	h := model.PriceHistory{
		Current:   observations[0].Price,
		Yesterday: observations[1].Price,
	}
	for _, o := range observations[1:] {
		h.LastWeek = append(h.LastWeek, o.Price)
	}
	return h, true, nil
}

func legMessage(header string, leg model.LegResult, eval model.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n%s", header, leg.Date.Format("2006-01-02"), eval.Message)

	if alt, saving, ok := cheaperAlternative(leg); ok {
		fmt.Fprintf(&b, "\n\n💡 Best alternative:\n📅 %s (%s)\n💰 €%.2f (save €%.2f)",
			alt.Date.Format("2006-01-02"), alt.DayOfWeek, alt.Price, saving)
	}
	return b.String()
}

// cheaperAlternative finds the cheapest available candidate that beats
// the resolved price.
func cheaperAlternative(leg model.LegResult) (model.CandidateDate, float64, bool) {
	best := -1
	for i, c := range leg.Alternatives {
		if !c.Available || !c.HasPrice || c.Price <= 0 {
			continue
		}
		if best < 0 || c.Price < leg.Alternatives[best].Price {
			best = i
		}
	}
	if best < 0 {
		return model.CandidateDate{}, 0, false
	}
	saving := leg.Price - leg.Alternatives[best].Price
	if saving <= 0 {
		return model.CandidateDate{}, 0, false
	}
	return leg.Alternatives[best], saving, true
}

// totalChangeMessage compares today's round-trip total with the prior
// run's total.
func totalChangeMessage(trip model.RoundTrip, outHist, retHist model.PriceHistory) (string, bool) {
	current := trip.Outbound.Price + trip.Return.Price
	previous := outHist.Yesterday + retHist.Yesterday
	if previous == 0 {
		return "", false
	}
	delta := current - previous
	pct := delta / previous * 100
	if abs(pct) < totalChangePctThreshold && abs(delta) < totalChangeAbsThreshold {
		return "", false
	}

	emoji, direction := "📈", "UP"
	if delta < 0 {
		emoji, direction = "📉", "DOWN"
	}
	return fmt.Sprintf("%s TOTAL PRICE %s\n\n💰 Current total: €%.2f\n📊 Previous total: €%.2f\n📈 Change: %+.1f%% (€%+.2f)\n\n🛫 Outbound: €%.2f\n🛬 Return: €%.2f",
		emoji, direction, current, previous, pct, delta, trip.Outbound.Price, trip.Return.Price), true
}

// weeklyDigest summarizes both legs for a silent week, with 30-day
// context when the repository has it for both legs.
func (c *Composer) weeklyDigest(route config.RouteConfig, trip model.RoundTrip) (string, error) {
	total := trip.Outbound.Price + trip.Return.Price

	var b strings.Builder
	b.WriteString("📊 WEEKLY PRICE DIGEST\n\n")
	fmt.Fprintf(&b, "🛫 Outbound (%s): €%.2f\n", trip.Outbound.Date.Format("2006-01-02"), trip.Outbound.Price)
	fmt.Fprintf(&b, "🛬 Return (%s): €%.2f\n", trip.Return.Date.Format("2006-01-02"), trip.Return.Price)
	fmt.Fprintf(&b, "💰 Total: €%.2f", total)

	outStats, err := c.history.Stats(trip.Outbound.Date, model.LegOutbound, route.OutboundRoute(), statsWindowDays)
	if err != nil {
		return "", fmt.Errorf("outbound stats: %w", err)
	}
	retStats, err := c.history.Stats(trip.Return.Date, model.LegReturn, route.ReturnRoute(), statsWindowDays)
	if err != nil {
		return "", fmt.Errorf("return stats: %w", err)
	}
	if outStats != nil && retStats != nil {
		avgTotal := outStats.Avg + retStats.Avg
		diff := total - avgTotal
		emoji := "👎"
		if diff < 0 {
			emoji = "👍"
		}
		fmt.Fprintf(&b, "\n\n📈 30-day average: €%.2f\n%s Difference: €%+.2f", avgTotal, emoji, diff)
	}
	return b.String(), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
