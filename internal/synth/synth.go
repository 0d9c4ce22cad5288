package synth

import (
	"hash/fnv"
	"math"
	"math/rand"

	"bandarscan/internal/domain/models"
)

// Bars is the number of synthetic bars generated before the real closing bar.
const Bars = 30

const (
	startDiscount   = 0.95 // synthetic series starts below the previous close
	volatilityFloor = 0.01
	trendCap        = 0.05
	reversionPull   = 0.1
	clampLow        = 0.5
	clampHigh       = 1.5
)

// Seed derives a deterministic RNG seed for one instrument and trading date.
// Repeated runs over the same upstream snapshot must synthesize identical
// series, so the seed is a pure function of its inputs.
func Seed(symbol, date string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{0})
	h.Write([]byte(date))
	return int64(h.Sum64())
}

// Series builds a synthetic intraday proxy history for one daily record:
// Bars synthetic bars modeled from the record's realized move plus one final
// bar carrying the record's true close/high/low/volume. The caller owns the
// RNG; previous close must be positive (filtered upstream).
func Series(rec *models.RawRecord, rng *rand.Rand) []models.SyntheticBar {
	base := rec.Previous
	daily := math.Abs(rec.Change) / base
	if daily < volatilityFloor {
		daily = volatilityFloor
	}

	trendDir := 0.0
	if rec.Change > 0 {
		trendDir = 1
	} else if rec.Change < 0 {
		trendDir = -1
	}
	trendStrength := math.Min(math.Abs(rec.Change)/base, trendCap)

	bars := make([]models.SyntheticBar, 0, Bars+1)
	price := base * startDiscount
	var volSum, pvSum float64

	for i := Bars; i > 0; i-- {
		// Trend decays linearly toward the present; the walk is bounded by
		// realized daily volatility; reversion pulls back to the base price.
		trend := trendDir * trendStrength * float64(i) / float64(Bars) / float64(Bars)
		walk := (rng.Float64() - 0.5) * daily * 2
		reversion := (base - price) / base * reversionPull

		price *= 1 + trend + walk + reversion
		price = math.Max(price, base*clampLow)
		price = math.Min(price, base*clampHigh)

		intraday := daily * 0.5
		high := price * (1 + rng.Float64()*intraday)
		low := price * (1 - rng.Float64()*intraday)
		vol := rec.Volume * (0.8 + rng.Float64()*0.4)

		volSum += vol
		pvSum += price * vol

		bars = append(bars, models.SyntheticBar{
			Close:  price,
			High:   math.Max(high, price),
			Low:    math.Min(low, price),
			Volume: vol,
			VWAP:   vwap(pvSum, volSum, price),
		})
	}

	// The closing bar is always the record's real values, never synthesized.
	volSum += rec.Volume
	pvSum += rec.Close * rec.Volume
	bars = append(bars, models.SyntheticBar{
		Close:  rec.Close,
		High:   rec.High,
		Low:    rec.Low,
		Volume: rec.Volume,
		VWAP:   vwap(pvSum, volSum, rec.Close),
	})

	return bars
}

func vwap(pvSum, volSum, fallback float64) float64 {
	if volSum <= 0 {
		return fallback
	}
	return pvSum / volSum
}

// New returns a deterministic RNG for the given seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
