package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bandarscan/internal/domain/models"
	drepo "bandarscan/internal/domain/repository"
	"bandarscan/internal/indicator"
	"bandarscan/internal/pattern"
	"bandarscan/internal/risk"
	"bandarscan/internal/sector"
	"bandarscan/internal/service/idx"
	"bandarscan/internal/session"
	"bandarscan/internal/signal"
	"bandarscan/internal/synth"
	applogger "bandarscan/pkg/logger"
)

const (
	batchSize  = 10
	batchPause = 100 * time.Millisecond
)

// ScannerConfig bounds the eligible universe.
type ScannerConfig struct {
	MinPrice  float64
	MaxPrice  float64
	MinVolume float64
}

func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{MinPrice: 50, MaxPrice: 500, MinVolume: 500_000}
}

// Scanner runs the full pipeline: fetch the daily summary, filter the
// universe, analyze each instrument concurrently and fold the results into
// one ScanResult.
type Scanner struct {
	cfg      ScannerConfig
	feed     drepo.Feed
	composer *signal.Composer
	clock    *session.Clock
	log      *applogger.Logger
	metrics  drepo.Metrics

	// analyzeFn is the per-instrument chain, swappable in tests.
	analyzeFn func(*models.RawRecord, string) (*models.InstrumentView, error)
}

func NewScanner(cfg ScannerConfig, feed drepo.Feed, composer *signal.Composer, clock *session.Clock, log *applogger.Logger, metrics drepo.Metrics) *Scanner {
	s := &Scanner{
		cfg:      cfg,
		feed:     feed,
		composer: composer,
		clock:    clock,
		log:      log,
		metrics:  metrics,
	}
	s.analyzeFn = s.analyzeOne
	return s
}

// Scan executes one pipeline run. The upstream fetch is the only fallible
// step; per-instrument failures are isolated and reported in FailedSymbols.
func (s *Scanner) Scan(ctx context.Context) (*models.ScanResult, error) {
	start := time.Now()

	records, err := s.feed.FetchSummary(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRun("failed")
			s.metrics.RecordError("fetch")
		}
		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	eligible := s.filter(records)
	s.log.Info("scan universe filtered",
		applogger.Int("total", len(records)),
		applogger.Int("eligible", len(eligible)),
	)

	views, failed := s.analyze(ctx, eligible)

	// Strongest setups first; ties broken by volume.
	sort.Slice(views, func(i, j int) bool {
		if views[i].SignalStrength != views[j].SignalStrength {
			return views[i].SignalStrength > views[j].SignalStrength
		}
		return views[i].Volume > views[j].Volume
	})

	sectors, volume, momentum, riskSummary, market, signals := sector.Aggregate(views, records)

	result := &models.ScanResult{
		Timestamp:        time.Now().UnixMilli(),
		TotalScanned:     len(records),
		Displayed:        len(views),
		Stocks:           views,
		SignalSummary:    signals,
		SectorAnalysis:   sectors,
		VolumeProfile:    volume,
		MomentumAnalysis: momentum,
		RiskAnalysis:     riskSummary,
		MarketSummary:    market,
		MarketStatus:     s.clock.Status(),
		Strategy: fmt.Sprintf("Day Trading: Bandar Accumulation Detection (Rp %.0f-%.0f)",
			s.cfg.MinPrice, s.cfg.MaxPrice),
		Rules: models.TradingRules{
			TargetProfit: "4-6%",
			StopLoss:     "2-3%",
			Hold:         "max 1 day",
			Exit:         []string{"Take Profit 5%", "Cut Loss", "No Overnight"},
		},
		FailedSymbols: failed,
	}

	if s.metrics != nil {
		s.metrics.RecordRun("completed")
		s.metrics.RecordLatency("scan", time.Since(start).Seconds())
		for i := range views {
			s.metrics.RecordSignal(views[i].Signal)
		}
	}
	s.log.Info("scan completed",
		applogger.Int("displayed", len(views)),
		applogger.Int("failed", len(failed)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return result, nil
}

func (s *Scanner) filter(records []models.RawRecord) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.StockCode == "" || r.Previous <= 0 {
			continue
		}
		if r.Close < s.cfg.MinPrice || r.Close > s.cfg.MaxPrice {
			continue
		}
		if r.Volume <= s.cfg.MinVolume {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// analyze fans the eligible records out in fixed-size batches. The pause
// between batches keeps a large universe from monopolizing the scheduler.
func (s *Scanner) analyze(ctx context.Context, records []models.RawRecord) ([]models.InstrumentView, []string) {
	var (
		mu     sync.Mutex
		views  = make([]models.InstrumentView, 0, len(records))
		failed []string
	)

	date := s.clock.Current().Format("2006-01-02")

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		var wg sync.WaitGroup
		for j := i; j < end; j++ {
			wg.Add(1)
			go func(rec models.RawRecord) {
				defer wg.Done()
				view, err := s.analyzeGuarded(&rec, date)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = append(failed, rec.StockCode)
					if s.metrics != nil {
						s.metrics.RecordInstrument("failed")
					}
					return
				}
				views = append(views, *view)
				if s.metrics != nil {
					s.metrics.RecordInstrument("processed")
				}
			}(records[j])
		}
		wg.Wait()

		if end < len(records) {
			select {
			case <-time.After(batchPause):
			case <-ctx.Done():
				return views, failed
			}
		}
	}
	return views, failed
}

// analyzeGuarded converts a panic in any analysis stage to an error so one
// bad record cannot sink the run.
func (s *Scanner) analyzeGuarded(rec *models.RawRecord, date string) (view *models.InstrumentView, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("instrument analysis panicked",
				applogger.String("symbol", rec.StockCode),
				applogger.Any("panic", r),
			)
			view, err = nil, fmt.Errorf("analyze %s: panic: %v", rec.StockCode, r)
		}
	}()
	return s.analyzeFn(rec, date)
}

// analyzeOne runs the per-instrument chain.
func (s *Scanner) analyzeOne(rec *models.RawRecord, date string) (*models.InstrumentView, error) {
	rng := synth.New(synth.Seed(rec.StockCode, date))
	bars := synth.Series(rec, rng)
	indicators := indicator.Compute(bars)
	classification := pattern.Detect(rec)
	profile := risk.Assess(rec, bars)
	plan := risk.Plan(rec, profile.Tier)

	composed := s.composer.Compose(signal.Inputs{
		Record:     rec,
		Indicators: indicators,
		Pattern:    classification,
	})

	spread := rec.Offer - rec.Bid
	spreadPct := 0.0
	if rec.Close > 0 {
		spreadPct = spread / rec.Close * 100
	}
	dominance := 0.0
	if rec.Volume > 0 {
		dominance = (rec.ForeignBuy + rec.ForeignSell) / rec.Volume * 100
	}

	return &models.InstrumentView{
		Symbol:           rec.StockCode,
		Name:             rec.StockName,
		Sector:           sector.Classify(rec.StockCode, rec.StockName),
		Price:            rec.Close,
		Change:           rec.Change,
		ChangePercent:    rec.ChangePercent(),
		Volume:           rec.Volume,
		Signal:           composed.Category,
		SignalStrength:   composed.Strength,
		BandarSignal:     bandarSignal(classification.Label),
		BandarConfidence: classification.Confidence,
		BandarPattern:    classification.Rationale,
		Indicators:       indicators,
		MarketDepth: models.MarketDepth{
			Bid:           rec.Bid,
			BidVolume:     rec.BidVolume,
			Ask:           rec.Offer,
			AskVolume:     rec.OfferVolume,
			Spread:        spread,
			SpreadPercent: spreadPct,
		},
		ForeignActivity: models.ForeignActivity{
			NetBuy:     rec.ForeignNet(),
			BuyVolume:  rec.ForeignBuy,
			SellVolume: rec.ForeignSell,
			Dominance:  dominance,
		},
		Bias:         signal.Bias(rec),
		Pressure:     signal.Pressure(rec) * 100,
		RiskLevel:    profile.Tier,
		RiskMetrics:  profile,
		DayTradePlan: plan,
		Volatility:   profile.Volatility,
	}, nil
}

// bandarSignal maps a pattern label onto the buy/sell vocabulary used by
// the view.
func bandarSignal(label string) string {
	switch label {
	case models.PatternAccumulation:
		return models.SignalBuy
	case models.PatternDistribution:
		return models.SignalSell
	case models.PatternMomentum:
		return models.SignalBuy
	default:
		return models.SignalHold
	}
}

// Fallback builds a degraded result from the static symbol list when the
// upstream is down and nothing is cached. Views carry zero prices and HOLD
// signals; the payload exists so clients keep rendering.
func (s *Scanner) Fallback() *models.ScanResult {
	views := make([]models.InstrumentView, 0, len(idx.FallbackSymbols))
	for _, sym := range idx.FallbackSymbols {
		views = append(views, models.InstrumentView{
			Symbol:       sym,
			Name:         sym,
			Sector:       sector.Classify(sym, sym),
			Signal:       models.SignalHold,
			BandarSignal: models.SignalHold,
			Bias:         "BEARISH",
			Pressure:     50,
			RiskLevel:    models.RiskHigh,
		})
	}
	if s.metrics != nil {
		s.metrics.RecordRun("fallback")
	}
	return &models.ScanResult{
		Timestamp:     time.Now().UnixMilli(),
		TotalScanned:  0,
		Displayed:     len(views),
		Stocks:        views,
		MarketStatus:  s.clock.Status(),
		Strategy:      "Day Trading: Bandar Accumulation Detection (degraded)",
		FailedSymbols: []string{"upstream unavailable"},
	}
}
