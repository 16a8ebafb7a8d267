package model

// PriceHistory is the evaluation input for one leg, derived on demand
// from the repository. LastWeek holds up to 7 prior observations; order
// is irrelevant to the rules, only magnitude matters.
type PriceHistory struct {
	Current   float64
	Yesterday float64
	LastWeek  []float64
}

// Priority ranks how actionable an alert is.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Evaluation is the outcome of one rule pass over a price history.
type Evaluation struct {
	ShouldNotify bool
	Priority     Priority
	Reason       string
	Message      string
}

// Verdict is the tri-state buying recommendation.
type Verdict string

const (
	VerdictBuyNow  Verdict = "BUY_NOW"
	VerdictMonitor Verdict = "MONITOR"
	VerdictWait    Verdict = "WAIT"
)

// Recommendation combines the leg and round-trip evaluations into a
// confidence-scored call to action.
type Recommendation struct {
	Verdict    Verdict
	Confidence int // 0-100
	Message    string
}

// PriceStats summarizes observations for one travel date over a
// trailing window of observation days.
type PriceStats struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int
}

// Subscriber is a registered alert recipient.
type Subscriber struct {
	ChatID    int64
	ChatTitle string
}
