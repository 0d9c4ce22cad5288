package synth

import (
	"testing"

	"bandarscan/internal/domain/models"
)

func sampleRecord() *models.RawRecord {
	return &models.RawRecord{
		StockCode: "BBCA",
		Previous:  100,
		Close:     104,
		High:      106,
		Low:       99,
		Change:    4,
		Volume:    2_500_000,
	}
}

func TestSeriesLength(t *testing.T) {
	rec := sampleRecord()
	bars := Series(rec, New(Seed(rec.StockCode, "2026-02-02")))
	if len(bars) != Bars+1 {
		t.Fatalf("expected %d bars, got %d", Bars+1, len(bars))
	}
}

func TestSeriesFinalBarIsReal(t *testing.T) {
	rec := sampleRecord()
	bars := Series(rec, New(Seed(rec.StockCode, "2026-02-02")))
	last := bars[len(bars)-1]
	if last.Close != rec.Close || last.High != rec.High || last.Low != rec.Low || last.Volume != rec.Volume {
		t.Fatalf("final bar must carry the real record values, got %+v", last)
	}
}

func TestSeriesBounded(t *testing.T) {
	rec := sampleRecord()
	bars := Series(rec, New(Seed(rec.StockCode, "2026-02-02")))
	for i, b := range bars[:Bars] {
		if b.Close < rec.Previous*clampLow || b.Close > rec.Previous*clampHigh {
			t.Fatalf("bar %d close %.2f outside clamp", i, b.Close)
		}
		if b.High < b.Close {
			t.Fatalf("bar %d high %.2f below close %.2f", i, b.High, b.Close)
		}
		if b.Low > b.Close {
			t.Fatalf("bar %d low %.2f above close %.2f", i, b.Low, b.Close)
		}
		if b.Volume < rec.Volume*0.8 || b.Volume > rec.Volume*1.2 {
			t.Fatalf("bar %d volume %.0f outside band", i, b.Volume)
		}
		if b.VWAP <= 0 {
			t.Fatalf("bar %d vwap not positive", i)
		}
	}
}

func TestSeriesDeterministic(t *testing.T) {
	rec := sampleRecord()
	a := Series(rec, New(Seed(rec.StockCode, "2026-02-02")))
	b := Series(rec, New(Seed(rec.StockCode, "2026-02-02")))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bar %d differs across runs with identical seed", i)
		}
	}
}

func TestSeedVariesBySymbolAndDate(t *testing.T) {
	if Seed("BBCA", "2026-02-02") == Seed("BBRI", "2026-02-02") {
		t.Fatalf("different symbols must seed differently")
	}
	if Seed("BBCA", "2026-02-02") == Seed("BBCA", "2026-02-03") {
		t.Fatalf("different dates must seed differently")
	}
}

func TestVWAPFallback(t *testing.T) {
	if got := vwap(0, 0, 123); got != 123 {
		t.Fatalf("expected fallback 123, got %v", got)
	}
}
