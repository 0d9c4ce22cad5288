package signal

import (
	"math"

	"bandarscan/internal/domain/models"
)

// Gating thresholds on the agreement ratio: extreme categories need strong
// agreement between the contributing signals.
const (
	strongGate      = 0.6
	plainGate       = 0.4
	strongThreshold = 4.0
	plainThreshold  = 2.0
	maxStrength     = 5.0
)

// Config selects composer behavior. The zero value is the full algorithm;
// disabling both knobs reproduces the legacy plain-threshold scoring.
type Config struct {
	DisableMultiplier     bool
	DisableConfidenceGate bool
}

// Inputs carries everything the composer needs for one instrument.
type Inputs struct {
	Record     *models.RawRecord
	Indicators models.IndicatorSet
	Pattern    models.PatternClassification
}

// Composer merges indicator, pattern and order-flow evidence into one
// directional signal. Deterministic: no hidden state.
type Composer struct {
	cfg Config
}

func New(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Compose produces the final category and bounded strength. Missing core
// indicators (nil RSI/SMA/EMA) make the signal undecidable: HOLD, strength 0.
func (c *Composer) Compose(in Inputs) models.SignalResult {
	ind := in.Indicators
	if ind.RSI == nil || ind.SMA == nil || ind.EMA == nil {
		return models.SignalResult{Category: models.SignalHold, Strength: 0}
	}

	rec := in.Record
	price := rec.Close
	var bullish, bearish float64

	// RSI extremes are worth the most, tapering toward the middle band.
	rsi := *ind.RSI
	switch {
	case rsi < 25:
		bullish += 3
	case rsi < 35:
		bullish += 2
	case rsi < 45:
		bullish += 1
	case rsi > 75:
		bearish += 3
	case rsi > 65:
		bearish += 2
	case rsi > 55:
		bearish += 1
	}

	// Moving-average alignment.
	emaAbove := *ind.EMA > *ind.SMA
	priceAbove := price > *ind.SMA
	switch {
	case emaAbove && priceAbove:
		bullish += 2
	case emaAbove:
		bullish += 1
	case !emaAbove && !priceAbove:
		bearish += 2
	default:
		bearish += 1
	}

	// Volume confirmation.
	if rec.Volume > 1_000_000 {
		bullish++
	} else if rec.Volume < 100_000 {
		bearish++
	}

	// Foreign flow confirmation.
	net := rec.ForeignNet()
	if net > 1_000_000 {
		bullish++
	} else if net < -1_000_000 {
		bearish++
	}

	// Spread tightness.
	if price > 0 {
		spread := (rec.Offer - rec.Bid) / price
		if spread < 0.01 {
			bullish++
		} else if spread > 0.03 {
			bearish++
		}
	}

	score := bullish - bearish

	// Pattern boost: accumulation pushes the score up by its confidence,
	// distribution pulls it down.
	switch in.Pattern.Label {
	case models.PatternAccumulation:
		score += float64(in.Pattern.Confidence)
	case models.PatternDistribution:
		score -= float64(in.Pattern.Confidence)
	}

	// Agreement ratio. Zero contributing points means no evidence either
	// way; defined as zero confidence rather than NaN.
	total := bullish + bearish
	confidence := 0.0
	if total > 0 {
		confidence = math.Min(math.Abs(score)/total, 1)
	}

	adjusted := score
	if !c.cfg.DisableMultiplier {
		adjusted *= marketCondition(price, rec.Volume, net)
	}
	if c.cfg.DisableConfidenceGate {
		confidence = 1
	}

	category := models.SignalHold
	switch {
	case adjusted >= strongThreshold && confidence > strongGate:
		category = models.SignalStrongBuy
	case adjusted >= plainThreshold && confidence > plainGate:
		category = models.SignalBuy
	case adjusted <= -strongThreshold && confidence > strongGate:
		category = models.SignalStrongSell
	case adjusted <= -plainThreshold && confidence > plainGate:
		category = models.SignalSell
	}

	return models.SignalResult{
		Category: category,
		Strength: clamp(adjusted, -maxStrength, maxStrength),
	}
}

// marketCondition scales the net score by liquidity and price-level context,
// clamped to [0.5, 1.5].
func marketCondition(price, volume, foreignNet float64) float64 {
	cond := 1.0
	if volume > 5_000_000 {
		cond *= 1.2
	} else if volume < 500_000 {
		cond *= 0.8
	}
	if math.Abs(foreignNet) > 1_000_000 {
		cond *= 1.1
	}
	if price < 100 {
		cond *= 0.9
	} else if price > 1000 {
		cond *= 1.1
	}
	return clamp(cond, 0.5, 1.5)
}

// Bias reports whether the close finished in the upper or lower half of the
// day's range.
func Bias(rec *models.RawRecord) string {
	if rec.Close > (rec.High+rec.Low)/2 {
		return "BULLISH"
	}
	return "BEARISH"
}

// Pressure is the bid-side share of the visible book, 0.5 when empty.
func Pressure(rec *models.RawRecord) float64 {
	total := rec.BidVolume + rec.OfferVolume
	if total <= 0 {
		return 0.5
	}
	return rec.BidVolume / total
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
