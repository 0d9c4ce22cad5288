package risk

import (
	"math"
	"testing"

	"bandarscan/internal/domain/models"
)

func bar(high, low, close float64) models.SyntheticBar {
	return models.SyntheticBar{High: high, Low: low, Close: close}
}

func TestVolatility(t *testing.T) {
	rec := &models.RawRecord{Previous: 100, Change: -4}
	if got := Volatility(rec); got != 0.04 {
		t.Fatalf("expected 0.04, got %v", got)
	}
	if got := Volatility(&models.RawRecord{Previous: 0, Change: 5}); got != 0 {
		t.Fatalf("expected 0 for non-positive previous, got %v", got)
	}
}

func TestSeriesVolatility(t *testing.T) {
	if got := SeriesVolatility(nil); got != 0 {
		t.Fatalf("expected 0 for empty series, got %v", got)
	}
	bars := []models.SyntheticBar{bar(0, 0, 2), bar(0, 0, 4), bar(0, 0, 6)}
	// Population stddev of {2,4,6} is sqrt(8/3).
	want := math.Sqrt(8.0 / 3.0)
	if got := SeriesVolatility(bars); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestATR(t *testing.T) {
	if got := ATR([]models.SyntheticBar{bar(10, 9, 9.5)}); got != 0 {
		t.Fatalf("expected 0 for single bar, got %v", got)
	}
	bars := []models.SyntheticBar{
		bar(10, 9, 9.5),
		bar(11, 10, 10.5), // TR = max(1, |11-9.5|, |10-9.5|) = 1.5
		bar(11, 10, 10.5), // TR = max(1, 0.5, 0.5) = 1
	}
	if got := ATR(bars); math.Abs(got-1.25) > 1e-9 {
		t.Fatalf("expected 1.25, got %v", got)
	}
}

func TestAssessSupportResistance(t *testing.T) {
	// 12 bars; the trailing 10 exclude the first two extremes.
	bars := []models.SyntheticBar{bar(200, 10, 100), bar(210, 5, 100)}
	for i := 0; i < 10; i++ {
		bars = append(bars, bar(110, 90, 100))
	}
	rec := &models.RawRecord{Previous: 100, Close: 100, Change: 0, Volume: 2_000_000, Bid: 100, Offer: 101}
	got := Assess(rec, bars)
	if got.Support != 90 || got.Resistance != 110 {
		t.Fatalf("expected 90/110, got %v/%v", got.Support, got.Resistance)
	}
	// (110-100)/(100-90) = 1.
	if math.Abs(got.RiskRewardRatio-1) > 1e-9 {
		t.Fatalf("expected rr 1, got %v", got.RiskRewardRatio)
	}
}

func TestAssessRiskRewardCapped(t *testing.T) {
	bars := []models.SyntheticBar{bar(500, 99, 100), bar(500, 99, 100)}
	rec := &models.RawRecord{Previous: 100, Close: 100, Volume: 2_000_000, Bid: 100, Offer: 101}
	got := Assess(rec, bars)
	if got.RiskRewardRatio != 5 {
		t.Fatalf("expected rr capped at 5, got %v", got.RiskRewardRatio)
	}
}

func TestAssessCloseAtSupport(t *testing.T) {
	bars := []models.SyntheticBar{bar(120, 100, 110), bar(120, 100, 110)}
	rec := &models.RawRecord{Previous: 100, Close: 100, Volume: 2_000_000, Bid: 100, Offer: 101}
	got := Assess(rec, bars)
	if got.RiskRewardRatio != 0 {
		t.Fatalf("expected rr 0 at support, got %v", got.RiskRewardRatio)
	}
}

func TestAssessEmptySeries(t *testing.T) {
	rec := &models.RawRecord{Previous: 100, Close: 102, High: 105, Low: 98, Volume: 500_000, Bid: 102, Offer: 103}
	got := Assess(rec, nil)
	if got.Support != 98 || got.Resistance != 105 {
		t.Fatalf("expected record high/low fallback, got %v/%v", got.Support, got.Resistance)
	}
	if got.ATR != 0 {
		t.Fatalf("expected ATR 0, got %v", got.ATR)
	}
}

func TestTier(t *testing.T) {
	cases := []struct {
		name       string
		rec        *models.RawRecord
		volatility float64
		want       string
	}{
		{"low", &models.RawRecord{Volume: 4_000_000, Bid: 100, Offer: 101}, 0.01, models.RiskLow},
		{"medium volume only", &models.RawRecord{Volume: 2_000_000, Bid: 100, Offer: 101}, 0.01, models.RiskMedium},
		{"medium volatility", &models.RawRecord{Volume: 4_000_000, Bid: 100, Offer: 101}, 0.04, models.RiskMedium},
		{"high thin", &models.RawRecord{Volume: 500_000, Bid: 100, Offer: 101}, 0.01, models.RiskHigh},
		{"high wide spread", &models.RawRecord{Volume: 4_000_000, Bid: 100, Offer: 104}, 0.01, models.RiskHigh},
		{"high volatile", &models.RawRecord{Volume: 4_000_000, Bid: 100, Offer: 101}, 0.08, models.RiskHigh},
		{"high no bid", &models.RawRecord{Volume: 4_000_000, Bid: 0, Offer: 101}, 0.01, models.RiskHigh},
	}
	for _, tc := range cases {
		if got := Tier(tc.rec, tc.volatility); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestPlan(t *testing.T) {
	rec := &models.RawRecord{Close: 250}

	low := Plan(rec, models.RiskLow)
	if low.TargetPrice != 265 || low.StopLoss != 245 {
		t.Fatalf("low tier: got target %v stop %v", low.TargetPrice, low.StopLoss)
	}
	if low.RiskReward != "1:3.0" || low.PositionSize != "4-5%" {
		t.Fatalf("low tier: got rr %q size %q", low.RiskReward, low.PositionSize)
	}

	med := Plan(rec, models.RiskMedium)
	if med.TargetPrice != 263 || med.StopLoss != 243 {
		t.Fatalf("medium tier: got target %v stop %v", med.TargetPrice, med.StopLoss)
	}
	if med.RiskReward != "1:1.7" || med.PositionSize != "3-4%" {
		t.Fatalf("medium tier: got rr %q size %q", med.RiskReward, med.PositionSize)
	}

	high := Plan(rec, models.RiskHigh)
	if high.TargetPrice != 260 || high.StopLoss != 243 {
		t.Fatalf("high tier: got target %v stop %v", high.TargetPrice, high.StopLoss)
	}
	if high.RiskReward != "1:1.3" || high.PositionSize != "2-3%" {
		t.Fatalf("high tier: got rr %q size %q", high.RiskReward, high.PositionSize)
	}
	if high.Timeframe != "INTRADAY" || high.MaxHoldTime != "1 day" {
		t.Fatalf("got timeframe %q hold %q", high.Timeframe, high.MaxHoldTime)
	}
}
