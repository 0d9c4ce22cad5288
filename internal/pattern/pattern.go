package pattern

import (
	"math"
	"strings"

	"bandarscan/internal/domain/models"
)

// Rule thresholds. Volumes are share counts, ratios are fractions.
const (
	spikeVolume     = 2_000_000
	tightVolume     = 1_500_000
	momentumVolume  = 1_000_000
	stableChange    = 0.02
	tightSpread     = 0.02
	foreignNetFloor = 500_000
	fallingChange   = -0.01
	momentumChange  = 0.03
	maxConfidence   = 5
)

type rule struct {
	score       float64
	description string
	match       func(*models.RawRecord) bool
}

// Independent, additive rules. Order only matters for the rationale text.
var rules = []rule{
	{3, "high volume, stable price", func(r *models.RawRecord) bool {
		return r.Volume > spikeVolume && priceChangeRatio(r) < stableChange
	}},
	{2, "tight spread", func(r *models.RawRecord) bool {
		return r.SpreadRatio() < tightSpread && r.Volume > tightVolume
	}},
	{1, "foreign net buying", func(r *models.RawRecord) bool {
		return r.ForeignNet() > foreignNetFloor
	}},
	{-3, "high volume, falling price", func(r *models.RawRecord) bool {
		return r.Volume > spikeVolume && r.Change < fallingChange
	}},
	{-2, "ask-side dominance", func(r *models.RawRecord) bool {
		return r.OfferVolume > r.BidVolume*2
	}},
}

func priceChangeRatio(r *models.RawRecord) float64 {
	if r.Previous <= 0 {
		return 0
	}
	return math.Abs(r.Change / r.Previous)
}

// Detect classifies one record's volume/spread/order-flow behavior.
func Detect(rec *models.RawRecord) models.PatternClassification {
	var score float64
	var fired []string

	for _, r := range rules {
		if r.match(rec) {
			score += r.score
			fired = append(fired, r.description)
		}
	}

	// Momentum fallback fires only when no other rule did: a strong rise on
	// decent volume that has not yet shown accumulation traits.
	if score == 0 && len(fired) == 0 &&
		rec.Change > momentumChange && rec.Volume > momentumVolume {
		score += 1.5
		fired = append(fired, "early momentum, not yet confirmed accumulation")
	}

	var label string
	switch {
	case score >= 3:
		label = models.PatternAccumulation
	case score <= -3:
		label = models.PatternDistribution
	case score > 0.5 && score < 3:
		label = models.PatternMomentum
	default:
		label = models.PatternNeutral
	}

	rationale := strings.Join(fired, ", ")
	if rationale == "" {
		rationale = "no clear pattern"
	}

	return models.PatternClassification{
		Label:      label,
		Confidence: int(math.Round(math.Min(math.Abs(score), maxConfidence))),
		Rationale:  rationale,
	}
}
