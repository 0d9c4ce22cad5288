package signal

import (
	"math"
	"testing"

	"bandarscan/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func TestComposeMissingIndicators(t *testing.T) {
	c := New(Config{})
	got := c.Compose(Inputs{
		Record:     &models.RawRecord{Close: 100},
		Indicators: models.IndicatorSet{},
	})
	if got.Category != models.SignalHold || got.Strength != 0 {
		t.Fatalf("expected HOLD/0, got %s/%v", got.Category, got.Strength)
	}
}

func TestComposeStrongBuy(t *testing.T) {
	c := New(Config{})
	// Oversold RSI (+3), aligned MAs (+2), volume (+1), tight spread (+1):
	// 7 bullish points, accumulation boost pushes the score to 10.
	in := Inputs{
		Record: &models.RawRecord{
			Close:  200,
			Volume: 2_000_000,
			Bid:    199,
			Offer:  200,
		},
		Indicators: models.IndicatorSet{
			RSI: fp(20),
			SMA: fp(195),
			EMA: fp(198),
		},
		Pattern: models.PatternClassification{
			Label:      models.PatternAccumulation,
			Confidence: 3,
		},
	}
	got := c.Compose(in)
	if got.Category != models.SignalStrongBuy {
		t.Fatalf("expected %s, got %s", models.SignalStrongBuy, got.Category)
	}
	if got.Strength != 5 {
		t.Fatalf("expected strength clamped to 5, got %v", got.Strength)
	}
}

func TestComposeStrongSell(t *testing.T) {
	c := New(Config{})
	// Overbought RSI (-3), broken MAs (-2), thin volume (-1), wide
	// spread (-1), distribution boost: score -9, thin-volume multiplier 0.8.
	in := Inputs{
		Record: &models.RawRecord{
			Close:  200,
			Volume: 50_000,
			Bid:    195,
			Offer:  205,
		},
		Indicators: models.IndicatorSet{
			RSI: fp(80),
			SMA: fp(210),
			EMA: fp(205),
		},
		Pattern: models.PatternClassification{
			Label:      models.PatternDistribution,
			Confidence: 2,
		},
	}
	got := c.Compose(in)
	if got.Category != models.SignalStrongSell {
		t.Fatalf("expected %s, got %s", models.SignalStrongSell, got.Category)
	}
	if got.Strength != -5 {
		t.Fatalf("expected strength clamped to -5, got %v", got.Strength)
	}
}

// conflictedInputs scores +2 on 7 contributing points: above the BUY
// threshold, but with agreement 2/7 under the 0.4 gate.
func conflictedInputs() Inputs {
	return Inputs{
		Record: &models.RawRecord{
			Close:  200,
			Volume: 2_000_000,
			Bid:    195,
			Offer:  205,
		},
		Indicators: models.IndicatorSet{
			RSI: fp(80),
			SMA: fp(195),
			EMA: fp(198),
		},
		Pattern: models.PatternClassification{
			Label:      models.PatternAccumulation,
			Confidence: 3,
		},
	}
}

func TestComposeConfidenceGate(t *testing.T) {
	got := New(Config{}).Compose(conflictedInputs())
	if got.Category != models.SignalHold {
		t.Fatalf("expected gated HOLD, got %s", got.Category)
	}
	if math.Abs(got.Strength-2) > 1e-9 {
		t.Fatalf("expected strength 2, got %v", got.Strength)
	}
}

func TestComposeDegenerateConfig(t *testing.T) {
	c := New(Config{DisableMultiplier: true, DisableConfidenceGate: true})
	got := c.Compose(conflictedInputs())
	if got.Category != models.SignalBuy {
		t.Fatalf("expected plain-threshold BUY, got %s", got.Category)
	}
}

func TestMarketCondition(t *testing.T) {
	if got := marketCondition(200, 2_000_000, 0); got != 1 {
		t.Fatalf("expected neutral 1, got %v", got)
	}
	if got := marketCondition(50, 400_000, 0); math.Abs(got-0.72) > 1e-9 {
		t.Fatalf("expected 0.72, got %v", got)
	}
	want := 1.2 * 1.1 * 1.1
	if got := marketCondition(2000, 6_000_000, 2_000_000); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBias(t *testing.T) {
	if got := Bias(&models.RawRecord{Close: 105, High: 110, Low: 90}); got != "BULLISH" {
		t.Fatalf("expected BULLISH, got %s", got)
	}
	if got := Bias(&models.RawRecord{Close: 100, High: 110, Low: 90}); got != "BEARISH" {
		t.Fatalf("expected BEARISH, got %s", got)
	}
}

func TestPressure(t *testing.T) {
	rec := &models.RawRecord{BidVolume: 600_000, OfferVolume: 400_000}
	if got := Pressure(rec); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected 0.6, got %v", got)
	}
	if got := Pressure(&models.RawRecord{}); got != 0.5 {
		t.Fatalf("expected 0.5 for empty book, got %v", got)
	}
}
