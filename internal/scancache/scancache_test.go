package scancache

import (
	"context"
	"errors"
	"testing"
	"time"

	"bandarscan/internal/domain/models"
	"bandarscan/internal/session"
	"bandarscan/pkg/cache"
	"bandarscan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// 2026-08-26 is a Wednesday; 10:00 WIB is inside the session.
func tradingTime() time.Time {
	return time.Date(2026, 8, 26, 10, 0, 30, 0, session.WIB)
}

func newManager(t *testing.T, now *time.Time, opts ...Option) *Manager {
	t.Helper()
	clock := &session.Clock{Now: func() time.Time { return *now }}
	opts = append(opts, WithClock(clock))
	return New(DefaultConfig(), testLogger(t), opts...)
}

func validResult() *models.ScanResult {
	stocks := []models.InstrumentView{
		{Symbol: "BBCA", Signal: models.SignalBuy},
		{Symbol: "BBRI", Signal: models.SignalHold},
		{Symbol: "TLKM", Signal: models.SignalHold},
		{Symbol: "ASII", Signal: models.SignalHold},
		{Symbol: "UNVR", Signal: models.SignalSell},
	}
	return &models.ScanResult{Stocks: stocks}
}

func TestKeyBuckets(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	k1 := m.Key()
	now = now.Add(20 * time.Second) // still the same minute
	if k2 := m.Key(); k2 != k1 {
		t.Fatalf("expected one key per minute, got %s vs %s", k1, k2)
	}
	now = now.Add(time.Minute)
	if k3 := m.Key(); k3 == k1 {
		t.Fatal("expected a new key in the next minute")
	}

	// Off-hours buckets are five minutes wide.
	now = time.Date(2026, 8, 26, 20, 1, 0, 0, session.WIB)
	k4 := m.Key()
	now = now.Add(3 * time.Minute)
	if k5 := m.Key(); k5 != k4 {
		t.Fatalf("expected one key per 5m off-hours, got %s vs %s", k4, k5)
	}
}

func TestGetOrComputeCaches(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	calls := 0
	compute := func(ctx context.Context) (*models.ScanResult, error) {
		calls++
		return validResult(), nil
	}

	r1, cached, err := m.GetOrCompute(context.Background(), compute)
	if err != nil || cached {
		t.Fatalf("first call: cached=%v err=%v", cached, err)
	}
	r2, cached, err := m.GetOrCompute(context.Background(), compute)
	if err != nil || !cached {
		t.Fatalf("second call: cached=%v err=%v", cached, err)
	}
	if calls != 1 {
		t.Fatalf("expected one compute, got %d", calls)
	}
	if r1 != r2 {
		t.Fatal("expected the same result instance")
	}
}

// Callers that join an in-flight run get a result computed during their own
// request, so they must not see it flagged as a cache hit.
func TestGetOrComputeJoinersNotCached(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	compute := func(ctx context.Context) (*models.ScanResult, error) {
		calls++
		close(started)
		<-release
		return validResult(), nil
	}

	type outcome struct {
		result *models.ScanResult
		cached bool
		err    error
	}
	leader := make(chan outcome, 1)
	go func() {
		r, c, err := m.GetOrCompute(context.Background(), compute)
		leader <- outcome{r, c, err}
	}()

	<-started
	joiner := make(chan outcome, 1)
	go func() {
		r, c, err := m.GetOrCompute(context.Background(), compute)
		joiner <- outcome{r, c, err}
	}()
	// Give the joiner time to reach the in-flight wait; the run stays
	// blocked on release until then.
	time.Sleep(20 * time.Millisecond)
	close(release)

	lead := <-leader
	join := <-joiner
	if lead.err != nil || join.err != nil {
		t.Fatalf("unexpected errors: %v / %v", lead.err, join.err)
	}
	if lead.cached {
		t.Fatal("leader must not report a cache hit")
	}
	if join.cached {
		t.Fatal("joiner must not report a cache hit")
	}
	if lead.result != join.result {
		t.Fatal("expected the shared run result")
	}
	if calls != 1 {
		t.Fatalf("expected one compute, got %d", calls)
	}

	// A later call in the same bucket is a real hit.
	if _, cached, err := m.GetOrCompute(context.Background(), compute); err != nil || !cached {
		t.Fatalf("follow-up call: cached=%v err=%v", cached, err)
	}
}

func TestGetOrComputeError(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	boom := errors.New("upstream down")
	calls := 0
	compute := func(ctx context.Context) (*models.ScanResult, error) {
		calls++
		return nil, boom
	}

	if _, _, err := m.GetOrCompute(context.Background(), compute); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	// Errors are not cached: the next call computes again.
	if _, _, err := m.GetOrCompute(context.Background(), compute); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two computes, got %d", calls)
	}
}

func TestGetOrComputeInvalidServedNotCached(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	thin := &models.ScanResult{Stocks: []models.InstrumentView{{Symbol: "BBCA", Signal: models.SignalBuy}}}
	calls := 0
	compute := func(ctx context.Context) (*models.ScanResult, error) {
		calls++
		return thin, nil
	}

	got, cached, err := m.GetOrCompute(context.Background(), compute)
	if err != nil || cached || got != thin {
		t.Fatalf("invalid result must still be served: cached=%v err=%v", cached, err)
	}
	if _, _, _ = m.GetOrCompute(context.Background(), compute); calls != 2 {
		t.Fatalf("expected recompute after invalid result, got %d calls", calls)
	}
	if _, ok := m.Last(); ok {
		t.Fatal("invalid result must not be stored")
	}
}

func TestValidate(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	if err := m.Validate(nil); err == nil {
		t.Fatal("expected error for nil result")
	}
	if err := m.Validate(&models.ScanResult{}); err == nil {
		t.Fatal("expected error for empty result")
	}

	missingAnchor := validResult()
	missingAnchor.Stocks[0].Symbol = "GGRM"
	if err := m.Validate(missingAnchor); err == nil {
		t.Fatal("expected error for missing anchor")
	}

	flat := validResult()
	for i := range flat.Stocks {
		flat.Stocks[i].Signal = models.SignalHold
	}
	if err := m.Validate(flat); err == nil {
		t.Fatal("expected error for single-category run")
	}

	if err := m.Validate(validResult()); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestEntryExpires(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	key := m.Key()
	m.store(key, validResult())
	if e := m.entries[key]; !m.fresh(e) {
		t.Fatal("expected fresh right after store")
	}
	now = now.Add(2*time.Minute + time.Second) // past trading TTL
	if e := m.entries[key]; m.fresh(e) {
		t.Fatal("expected stale past the session TTL")
	}
}

func TestLastIgnoresFreshness(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	if _, ok := m.Last(); ok {
		t.Fatal("expected no result on empty cache")
	}
	r := validResult()
	m.store(m.Key(), r)
	now = now.Add(9 * time.Minute) // stale but not swept
	got, ok := m.Last()
	if !ok || got != r {
		t.Fatal("expected the stale result to remain reachable")
	}
}

func TestCleanup(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	m.store("scan:1", validResult())
	now = now.Add(11 * time.Minute)
	m.store("scan:2", validResult())

	if removed := m.Cleanup(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if st := m.Status(); st.Entries != 1 {
		t.Fatalf("expected 1 entry left, got %d", st.Entries)
	}
}

func TestClearAndStatus(t *testing.T) {
	now := tradingTime()
	m := newManager(t, &now)

	m.store("scan:1", validResult())
	now = now.Add(time.Minute)
	m.store("scan:2", validResult())

	st := m.Status()
	if st.Entries != 2 || st.MaxSize != DefaultConfig().MaxEntries || len(st.Keys) != 2 {
		t.Fatalf("status: %+v", st)
	}
	if st.OldestAt != tradingTime().Unix() {
		t.Fatalf("oldest: got %d", st.OldestAt)
	}

	if n := m.Clear(); n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	if st := m.Status(); st.Entries != 0 {
		t.Fatalf("expected empty after clear, got %d", st.Entries)
	}
}

func TestEvictOldestAtCapacity(t *testing.T) {
	now := tradingTime()
	clock := &session.Clock{Now: func() time.Time { return now }}
	cfg := DefaultConfig()
	cfg.MaxEntries = 2
	m := New(cfg, testLogger(t), WithClock(clock))

	m.store("scan:1", validResult())
	now = now.Add(time.Second)
	m.store("scan:2", validResult())
	now = now.Add(time.Second)
	m.store("scan:3", validResult())

	st := m.Status()
	if st.Entries != 2 {
		t.Fatalf("expected capacity 2, got %d", st.Entries)
	}
	for _, key := range st.Keys {
		if key == "scan:1" {
			t.Fatal("oldest entry should have been evicted")
		}
	}
}

type spyL2 struct {
	*cache.MemoryCache
	patterns []string
}

func (s *spyL2) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestClearPurgesL2(t *testing.T) {
	now := tradingTime()
	l2 := &spyL2{MemoryCache: cache.NewMemoryCache()}
	m := newManager(t, &now, WithL2(l2))

	if _, _, err := m.GetOrCompute(context.Background(), func(ctx context.Context) (*models.ScanResult, error) {
		return validResult(), nil
	}); err != nil {
		t.Fatalf("compute: %v", err)
	}

	if n := m.Clear(); n != 1 {
		t.Fatalf("cleared: %d", n)
	}
	if len(l2.patterns) != 1 || l2.patterns[0] != "scan*" {
		t.Fatalf("L2 purge patterns: %v", l2.patterns)
	}
	if _, ok := m.Last(); ok {
		t.Fatal("expected an empty cache after clear")
	}
}
