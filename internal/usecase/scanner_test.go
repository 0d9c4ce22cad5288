package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bandarscan/internal/domain/models"
	"bandarscan/internal/session"
	"bandarscan/internal/signal"
	"bandarscan/pkg/logger"
)

type fakeFeed struct {
	records []models.RawRecord
	err     error
}

func (f *fakeFeed) FetchSummary(ctx context.Context) ([]models.RawRecord, error) {
	return f.records, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testClock() *session.Clock {
	return &session.Clock{Now: func() time.Time {
		return time.Date(2026, 8, 26, 10, 0, 0, 0, session.WIB)
	}}
}

func newTestScanner(t *testing.T, feed *fakeFeed) *Scanner {
	t.Helper()
	return NewScanner(DefaultScannerConfig(), feed, signal.New(signal.Config{}), testClock(), testLogger(t), nil)
}

func record(code string, close, volume float64) models.RawRecord {
	return models.RawRecord{
		StockCode:   code,
		StockName:   code,
		Previous:    close - 1,
		Close:       close,
		High:        close + 2,
		Low:         close - 3,
		Change:      1,
		Volume:      volume,
		Value:       close * volume,
		Bid:         close - 1,
		Offer:       close,
		BidVolume:   volume / 4,
		OfferVolume: volume / 5,
	}
}

func TestScanFiltersUniverse(t *testing.T) {
	feed := &fakeFeed{records: []models.RawRecord{
		record("AAAA", 100, 2_000_000),
		record("BBBB", 200, 1_000_000),
		record("CCCC", 300, 600_000),
		{StockCode: "", Previous: 100, Close: 100, Volume: 2_000_000},   // no symbol
		record("DDDD", 100, 100_000),                                    // too thin
		record("EEEE", 30, 2_000_000),                                   // below price floor
		record("FFFF", 900, 2_000_000),                                  // above price cap
		{StockCode: "GGGG", Previous: 0, Close: 100, Volume: 2_000_000}, // no previous close
	}}
	s := newTestScanner(t, feed)

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.TotalScanned != 8 {
		t.Fatalf("total scanned: %d", result.TotalScanned)
	}
	if result.Displayed != 3 || len(result.Stocks) != 3 {
		t.Fatalf("displayed: %d", result.Displayed)
	}
	if len(result.FailedSymbols) != 0 {
		t.Fatalf("unexpected failures: %v", result.FailedSymbols)
	}
	for i := 1; i < len(result.Stocks); i++ {
		if result.Stocks[i].SignalStrength > result.Stocks[i-1].SignalStrength {
			t.Fatal("stocks not sorted by signal strength")
		}
	}
}

func TestScanResultShape(t *testing.T) {
	feed := &fakeFeed{records: []models.RawRecord{
		record("AAAA", 100, 2_000_000),
		record("BBBB", 200, 1_000_000),
	}}
	s := newTestScanner(t, feed)

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.HasPrefix(result.Strategy, "Day Trading: Bandar Accumulation Detection") {
		t.Fatalf("strategy: %q", result.Strategy)
	}
	if result.Rules.Hold != "max 1 day" || len(result.Rules.Exit) != 3 {
		t.Fatalf("rules: %+v", result.Rules)
	}
	if result.MarketStatus.State != session.StateOpen {
		t.Fatalf("market status: %+v", result.MarketStatus)
	}
	if result.Timestamp == 0 {
		t.Fatal("missing timestamp")
	}

	v := result.Stocks[0]
	if v.Sector == "" || v.Signal == "" || v.BandarSignal == "" || v.RiskLevel == "" {
		t.Fatalf("incomplete view: %+v", v)
	}
	if v.Indicators.RSI == nil || v.Indicators.SMA == nil {
		t.Fatal("indicators not computed")
	}
	if v.DayTradePlan.Timeframe != "INTRADAY" {
		t.Fatalf("plan: %+v", v.DayTradePlan)
	}
}

func TestScanLargeUniverse(t *testing.T) {
	// 25 records span three batches.
	var records []models.RawRecord
	for i := 0; i < 25; i++ {
		records = append(records, record(fmt.Sprintf("SY%02d", i), 100+float64(i), 1_000_000))
	}
	s := newTestScanner(t, &fakeFeed{records: records})

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Displayed != 25 {
		t.Fatalf("expected all 25 analyzed, got %d (failed: %v)", result.Displayed, result.FailedSymbols)
	}
	seen := make(map[string]bool, 25)
	for i := range result.Stocks {
		seen[result.Stocks[i].Symbol] = true
	}
	if len(seen) != 25 {
		t.Fatalf("expected 25 distinct symbols, got %d", len(seen))
	}
}

func TestScanFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	s := newTestScanner(t, &fakeFeed{err: boom})

	if _, err := s.Scan(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestScanDeterministicPerDay(t *testing.T) {
	feed := &fakeFeed{records: []models.RawRecord{record("AAAA", 100, 2_000_000)}}
	s := newTestScanner(t, feed)

	r1, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	r2, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if *r1.Stocks[0].Indicators.RSI != *r2.Stocks[0].Indicators.RSI {
		t.Fatal("same record and date must produce the same indicators")
	}
	if r1.Stocks[0].SignalStrength != r2.Stocks[0].SignalStrength {
		t.Fatal("same record and date must produce the same signal")
	}
}

func TestFallback(t *testing.T) {
	s := newTestScanner(t, &fakeFeed{})
	got := s.Fallback()

	if got.Displayed == 0 || len(got.Stocks) != got.Displayed {
		t.Fatalf("fallback shape: %+v", got)
	}
	if got.TotalScanned != 0 {
		t.Fatalf("total scanned: %d", got.TotalScanned)
	}
	if len(got.FailedSymbols) != 1 || got.FailedSymbols[0] != "upstream unavailable" {
		t.Fatalf("failed symbols: %v", got.FailedSymbols)
	}
	for _, v := range got.Stocks {
		if v.Signal != models.SignalHold || v.RiskLevel != models.RiskHigh {
			t.Fatalf("degraded view: %+v", v)
		}
	}
	// Known anchors keep their real sector.
	if got.Stocks[0].Symbol != "BBCA" || got.Stocks[0].Sector != "Banking" {
		t.Fatalf("first fallback view: %+v", got.Stocks[0])
	}
}

// A panic in the analysis chain of one instrument must be isolated: the run
// keeps the healthy views and reports the broken symbols.
func TestScanIsolatesPanickingInstruments(t *testing.T) {
	records := make([]models.RawRecord, 0, 60)
	for i := 0; i < 60; i++ {
		records = append(records, record(fmt.Sprintf("PN%02d", i), 100, 2_000_000))
	}
	feed := &fakeFeed{records: records}
	s := newTestScanner(t, feed)

	poisoned := map[string]bool{"PN07": true, "PN23": true, "PN58": true}
	chain := s.analyzeFn
	s.analyzeFn = func(rec *models.RawRecord, date string) (*models.InstrumentView, error) {
		if poisoned[rec.StockCode] {
			panic("corrupt record")
		}
		return chain(rec, date)
	}

	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Displayed != 57 || len(result.Stocks) != 57 {
		t.Fatalf("displayed: %d, stocks: %d", result.Displayed, len(result.Stocks))
	}
	if len(result.FailedSymbols) != 3 {
		t.Fatalf("failed symbols: %v", result.FailedSymbols)
	}
	for _, sym := range result.FailedSymbols {
		if !poisoned[sym] {
			t.Fatalf("unexpected failed symbol %s", sym)
		}
	}
	for _, v := range result.Stocks {
		if poisoned[v.Symbol] {
			t.Fatalf("poisoned symbol %s reached the output", v.Symbol)
		}
	}
}
