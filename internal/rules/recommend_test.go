package rules

import (
	"testing"

	"FlightWatch/internal/model"
)

func high() model.Evaluation {
	return model.Evaluation{ShouldNotify: true, Priority: model.PriorityHigh, Reason: "PRICE_DROP"}
}

func quiet() model.Evaluation {
	return model.Evaluation{Reason: "no rule matched"}
}

func TestRecommend(t *testing.T) {
	medium := model.Evaluation{ShouldNotify: true, Priority: model.PriorityMedium, Reason: "BELOW_WEEK_AVG"}

	tests := []struct {
		name           string
		outbound, ret  model.Evaluation
		roundTrip      model.Evaluation
		wantVerdict    model.Verdict
		wantConfidence int
	}{
		{"all high", high(), high(), high(), model.VerdictBuyNow, 100},
		{"both legs high", high(), high(), quiet(), model.VerdictBuyNow, 60},
		{"one leg plus round trip", high(), quiet(), high(), model.VerdictBuyNow, 70},
		{"round trip only", quiet(), quiet(), high(), model.VerdictMonitor, 40},
		{"one leg only", high(), quiet(), quiet(), model.VerdictMonitor, 30},
		{"nothing", quiet(), quiet(), quiet(), model.VerdictWait, 100},
		{"medium signals carry no weight", medium, medium, medium, model.VerdictWait, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.outbound, tt.ret, tt.roundTrip)
			if rec.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %s, want %s", rec.Verdict, tt.wantVerdict)
			}
			if rec.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %d, want %d", rec.Confidence, tt.wantConfidence)
			}
			if rec.Message == "" {
				t.Error("expected a non-empty message")
			}
		})
	}
}

func TestRecommend_NonNotifyingHighCarriesNoWeight(t *testing.T) {
	silentHigh := model.Evaluation{ShouldNotify: false, Priority: model.PriorityHigh}
	rec := Recommend(silentHigh, silentHigh, silentHigh)
	if rec.Verdict != model.VerdictWait {
		t.Errorf("verdict = %s, want WAIT", rec.Verdict)
	}
}
