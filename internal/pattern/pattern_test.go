package pattern

import (
	"strings"
	"testing"

	"bandarscan/internal/domain/models"
)

func TestDetectAccumulation(t *testing.T) {
	rec := &models.RawRecord{
		StockCode:   "TEST",
		Previous:    80,
		Close:       81,
		Change:      1,
		Volume:      2_500_000,
		Bid:         80,
		Offer:       81,
		BidVolume:   1_000_000,
		OfferVolume: 900_000,
		ForeignBuy:  700_000,
		ForeignSell: 100_000,
	}
	got := Detect(rec)
	if got.Label != models.PatternAccumulation {
		t.Fatalf("expected %s, got %s", models.PatternAccumulation, got.Label)
	}
	// High volume + stable price (3), tight spread (2), foreign buying (1).
	if got.Confidence != 5 {
		t.Fatalf("expected confidence 5, got %d", got.Confidence)
	}
	if !strings.Contains(got.Rationale, "high volume, stable price") {
		t.Fatalf("rationale missing spike rule: %q", got.Rationale)
	}
}

func TestDetectDistribution(t *testing.T) {
	rec := &models.RawRecord{
		Previous:    100,
		Close:       95,
		Change:      -5,
		Volume:      3_000_000,
		Bid:         95,
		Offer:       96,
		BidVolume:   100_000,
		OfferVolume: 500_000,
	}
	got := Detect(rec)
	if got.Label != models.PatternDistribution {
		t.Fatalf("expected %s, got %s", models.PatternDistribution, got.Label)
	}
	if got.Confidence < 3 {
		t.Fatalf("expected confidence >= 3, got %d", got.Confidence)
	}
}

func TestDetectMomentumFallback(t *testing.T) {
	// No rule fires: modest volume, wide spread, strong rise.
	rec := &models.RawRecord{
		Previous:  100,
		Close:     104,
		Change:    4, // ratio 0.04 > stable threshold
		Volume:    1_200_000,
		Bid:       100,
		Offer:     104,
		BidVolume: 500_000,
	}
	got := Detect(rec)
	if got.Label != models.PatternMomentum {
		t.Fatalf("expected %s, got %s", models.PatternMomentum, got.Label)
	}
	if got.Confidence != 2 {
		t.Fatalf("expected confidence 2 (round 1.5), got %d", got.Confidence)
	}
}

func TestDetectNeutral(t *testing.T) {
	rec := &models.RawRecord{
		Previous:  100,
		Close:     100,
		Volume:    200_000,
		Bid:       100,
		Offer:     103,
		BidVolume: 100_000,
	}
	got := Detect(rec)
	if got.Label != models.PatternNeutral {
		t.Fatalf("expected %s, got %s", models.PatternNeutral, got.Label)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %d", got.Confidence)
	}
	if got.Rationale != "no clear pattern" {
		t.Fatalf("unexpected rationale %q", got.Rationale)
	}
}

func TestDetectEmptyBidBook(t *testing.T) {
	// No bid means an unbounded spread: the tight-spread rule must not fire
	// even though volume clears its floor.
	rec := &models.RawRecord{
		Previous: 100,
		Close:    100,
		Change:   0,
		Volume:   1_600_000,
		Bid:      0,
		Offer:    101,
	}
	got := Detect(rec)
	if got.Label != models.PatternNeutral {
		t.Fatalf("expected %s, got %s", models.PatternNeutral, got.Label)
	}
	if got.Rationale != "no clear pattern" {
		t.Fatalf("unexpected rationale %q", got.Rationale)
	}
}

func TestDetectOpposingRulesCancel(t *testing.T) {
	// Falling on volume (-3) plus tight spread (+2) plus foreign buying (+1)
	// nets to zero; fallback must not fire because rules already did.
	rec := &models.RawRecord{
		Previous:    100,
		Close:       98,
		Change:      -2,
		Volume:      2_500_000,
		Bid:         98,
		Offer:       99,
		BidVolume:   800_000,
		OfferVolume: 900_000,
		ForeignBuy:  800_000,
		ForeignSell: 100_000,
	}
	got := Detect(rec)
	if got.Label != models.PatternNeutral {
		t.Fatalf("expected %s, got %s", models.PatternNeutral, got.Label)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %d", got.Confidence)
	}
	if got.Rationale == "no clear pattern" {
		t.Fatal("fired rules must still appear in the rationale")
	}
}
