package models

import (
	"math"
	"testing"
)

func TestChangePercent(t *testing.T) {
	r := &RawRecord{Previous: 80, Change: 1}
	if got := r.ChangePercent(); got != 1.25 {
		t.Fatalf("expected 1.25, got %v", got)
	}
	if got := (&RawRecord{Previous: 0, Change: 1}).ChangePercent(); got != 0 {
		t.Fatalf("expected 0 for non-positive previous, got %v", got)
	}
}

func TestForeignNet(t *testing.T) {
	r := &RawRecord{ForeignBuy: 700_000, ForeignSell: 100_000}
	if got := r.ForeignNet(); got != 600_000 {
		t.Fatalf("expected 600000, got %v", got)
	}
}

func TestSpreadRatio(t *testing.T) {
	r := &RawRecord{Bid: 80, Offer: 81}
	if got := r.SpreadRatio(); got != 0.0125 {
		t.Fatalf("expected 0.0125, got %v", got)
	}
	// A book with no bid must never look tight.
	if got := (&RawRecord{Bid: 0, Offer: 101}).SpreadRatio(); !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf for empty bid, got %v", got)
	}
}
