package sector

import (
	"sort"

	"bandarscan/internal/domain/models"
)

const (
	topMoverCount  = 5
	topVolumeCount = 10
)

// Aggregate builds the market-wide summaries over the composed views.
// views are the instruments that survived filtering; all are the full
// upstream record set, used only for the market summary block.
func Aggregate(views []models.InstrumentView, all []models.RawRecord) (
	map[string]*models.SectorSummary,
	models.VolumeProfile,
	models.MomentumAnalysis,
	models.RiskAnalysis,
	models.MarketSummary,
	models.SignalSummary,
) {
	return bySector(views),
		volumeProfile(views),
		momentum(views),
		riskHistogram(views),
		marketSummary(all),
		signalCounts(views)
}

func bySector(views []models.InstrumentView) map[string]*models.SectorSummary {
	out := make(map[string]*models.SectorSummary)
	strength := make(map[string]float64)
	for i := range views {
		v := &views[i]
		s, ok := out[v.Sector]
		if !ok {
			s = &models.SectorSummary{TopPerformerChange: -1e18}
			out[v.Sector] = s
		}
		s.Count++
		s.TotalVolume += v.Volume
		s.AvgPrice += v.Price
		strength[v.Sector] += v.SignalStrength
		switch v.Signal {
		case models.SignalBuy, models.SignalStrongBuy:
			s.BuySignals++
		case models.SignalSell, models.SignalStrongSell:
			s.SellSignals++
		}
		if v.ChangePercent > s.TopPerformerChange {
			s.TopPerformer = v.Symbol
			s.TopPerformerChange = v.ChangePercent
		}
	}
	for name, s := range out {
		s.AvgPrice /= float64(s.Count)
		s.AvgSignalStrength = strength[name] / float64(s.Count)
	}
	return out
}

func volumeProfile(views []models.InstrumentView) models.VolumeProfile {
	var p models.VolumeProfile
	for i := range views {
		v := &views[i]
		p.TotalVolume += v.Volume
		switch {
		case v.Volume > 10_000_000:
			p.Ranges.Mega++
		case v.Volume > 5_000_000:
			p.Ranges.High++
		case v.Volume > 1_000_000:
			p.Ranges.Medium++
		default:
			p.Ranges.Low++
		}
	}
	if len(views) > 0 {
		p.AvgVolume = p.TotalVolume / float64(len(views))
	}

	sorted := make([]*models.InstrumentView, len(views))
	for i := range views {
		sorted[i] = &views[i]
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volume > sorted[j].Volume })
	n := topVolumeCount
	if n > len(sorted) {
		n = len(sorted)
	}
	for _, v := range sorted[:n] {
		pct := 0.0
		if p.TotalVolume > 0 {
			pct = v.Volume / p.TotalVolume * 100
		}
		p.TopStocks = append(p.TopStocks, models.VolumeLeader{
			Symbol:        v.Symbol,
			Volume:        v.Volume,
			VolumePercent: pct,
			Signal:        v.Signal,
			ChangePercent: v.ChangePercent,
		})
	}
	return p
}

func momentum(views []models.InstrumentView) models.MomentumAnalysis {
	var m models.MomentumAnalysis
	for i := range views {
		v := &views[i]
		switch {
		case v.SignalStrength >= 3 || v.SignalStrength <= -3:
			m.StrongMomentum++
		}
		switch {
		case v.SignalStrength > 0:
			m.Bullish++
		case v.SignalStrength < 0:
			m.Bearish++
		default:
			m.Neutral++
		}
		switch {
		case v.ChangePercent > 0:
			m.Gainers++
		case v.ChangePercent < 0:
			m.Losers++
		default:
			m.Unchanged++
		}
		if v.ChangePercent > 5 || v.ChangePercent < -5 {
			m.BigMovers++
		}
	}

	sorted := make([]*models.InstrumentView, len(views))
	for i := range views {
		sorted[i] = &views[i]
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChangePercent > sorted[j].ChangePercent })
	n := topMoverCount
	if n > len(sorted) {
		n = len(sorted)
	}
	for _, v := range sorted[:n] {
		m.TopGainers = append(m.TopGainers, models.PriceMover{Symbol: v.Symbol, Change: v.ChangePercent, Signal: v.Signal})
	}
	for i := 0; i < n; i++ {
		v := sorted[len(sorted)-1-i]
		m.TopLosers = append(m.TopLosers, models.PriceMover{Symbol: v.Symbol, Change: v.ChangePercent, Signal: v.Signal})
	}

	switch {
	case m.Bullish > m.Bearish:
		m.MarketSentiment = "BULLISH"
	case m.Bearish > m.Bullish:
		m.MarketSentiment = "BEARISH"
	default:
		m.MarketSentiment = "NEUTRAL"
	}
	return m
}

func riskHistogram(views []models.InstrumentView) models.RiskAnalysis {
	var r models.RiskAnalysis
	var volSum, rrSum float64
	for i := range views {
		v := &views[i]
		switch v.RiskLevel {
		case models.RiskLow:
			r.LowRisk++
		case models.RiskMedium:
			r.MediumRisk++
		default:
			r.HighRisk++
		}
		volSum += v.RiskMetrics.Volatility
		rrSum += v.RiskMetrics.RiskRewardRatio
	}
	if len(views) > 0 {
		r.AvgVolatility = volSum / float64(len(views))
		r.AvgRiskReward = rrSum / float64(len(views))
	}
	switch {
	case r.AvgVolatility > 0.04:
		r.MarketRisk = models.RiskHigh
	case r.AvgVolatility > 0.02:
		r.MarketRisk = models.RiskMedium
	default:
		r.MarketRisk = models.RiskLow
	}
	return r
}

func marketSummary(all []models.RawRecord) models.MarketSummary {
	var s models.MarketSummary
	s.TotalStocks = len(all)
	for i := range all {
		rec := &all[i]
		s.TotalVolume += rec.Volume
		s.TotalValue += rec.Value
		switch {
		case rec.Change > 0:
			s.Advancing++
		case rec.Change < 0:
			s.Declining++
		default:
			s.Unchanged++
		}
	}
	if s.Declining > 0 {
		s.AdvanceDeclineRat = float64(s.Advancing) / float64(s.Declining)
	} else {
		s.AdvanceDeclineRat = float64(s.Advancing)
	}
	return s
}

func signalCounts(views []models.InstrumentView) models.SignalSummary {
	var s models.SignalSummary
	for i := range views {
		switch views[i].Signal {
		case models.SignalStrongBuy:
			s.StrongBuy++
			s.Buy++
		case models.SignalBuy:
			s.Buy++
		case models.SignalStrongSell:
			s.StrongSell++
			s.Sell++
		case models.SignalSell:
			s.Sell++
		default:
			s.Hold++
		}
	}
	return s
}
