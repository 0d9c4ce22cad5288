package risk

import (
	"fmt"
	"math"

	"bandarscan/internal/domain/models"
)

// Trailing window for support/resistance extraction.
const srWindow = 10

// Risk-reward caps at 5; anything higher is noise on a 30-bar proxy series.
const maxRiskReward = 5

// Tier thresholds: volume, spread ratio, volatility.
const (
	lowVolume = 3_000_000
	lowSpread = 0.02
	lowVol    = 0.03
	medVolume = 1_000_000
	medSpread = 0.03
	medVol    = 0.05
)

// Volatility returns the realized daily volatility for a record: the absolute
// change relative to the previous close.
func Volatility(rec *models.RawRecord) float64 {
	if rec.Previous <= 0 {
		return 0
	}
	return math.Abs(rec.Change / rec.Previous)
}

// SeriesVolatility is the population standard deviation of closes, used when
// a richer series is available.
func SeriesVolatility(bars []models.SyntheticBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var mean float64
	for _, b := range bars {
		mean += b.Close
	}
	mean /= float64(len(bars))
	var variance float64
	for _, b := range bars {
		d := b.Close - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(bars)))
}

// ATR is the mean true range over the series (true range needs a previous
// close, so the first bar only seeds it).
func ATR(bars []models.SyntheticBar) float64 {
	if len(bars) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(bars); i++ {
		tr := math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-bars[i-1].Close),
				math.Abs(bars[i].Low-bars[i-1].Close)))
		sum += tr
	}
	return sum / float64(len(bars)-1)
}

// Assess builds the full risk profile for one instrument.
func Assess(rec *models.RawRecord, bars []models.SyntheticBar) models.RiskProfile {
	vol := Volatility(rec)

	window := bars
	if len(bars) > srWindow {
		window = bars[len(bars)-srWindow:]
	}
	support := math.Inf(1)
	resistance := math.Inf(-1)
	for _, b := range window {
		support = math.Min(support, b.Low)
		resistance = math.Max(resistance, b.High)
	}
	if len(window) == 0 {
		support, resistance = rec.Low, rec.High
	}

	// Ratio is undefined when price sits at or below support; report 0
	// rather than propagating Inf/NaN.
	rr := 0.0
	if rec.Close > support {
		rr = math.Min((resistance-rec.Close)/(rec.Close-support), maxRiskReward)
		if rr < 0 {
			rr = 0
		}
	}

	return models.RiskProfile{
		Support:         support,
		Resistance:      resistance,
		ATR:             ATR(bars),
		Volatility:      vol,
		RiskRewardRatio: rr,
		Tier:            Tier(rec, vol),
	}
}

// Tier maps volume, spread and volatility onto LOW/MEDIUM/HIGH.
func Tier(rec *models.RawRecord, volatility float64) string {
	spread := rec.SpreadRatio()
	switch {
	case rec.Volume > lowVolume && spread < lowSpread && volatility < lowVol:
		return models.RiskLow
	case rec.Volume > medVolume && spread < medSpread && volatility < medVol:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// Plan derives the intraday trade plan from the risk tier. Targets and stops
// are fixed percentages; position sizing shrinks as tier risk grows.
func Plan(rec *models.RawRecord, tier string) models.TradePlan {
	target, stop := 0.05, 0.03
	size := "3-4%"
	switch tier {
	case models.RiskLow:
		target, stop = 0.06, 0.02
		size = "4-5%"
	case models.RiskHigh:
		target, stop = 0.04, 0.03
		size = "2-3%"
	}

	return models.TradePlan{
		TargetPrice:  math.Round(rec.Close * (1 + target)),
		StopLoss:     math.Round(rec.Close * (1 - stop)),
		RiskReward:   fmt.Sprintf("1:%.1f", target/stop),
		Timeframe:    "INTRADAY",
		PositionSize: size,
		MaxHoldTime:  "1 day",
	}
}
