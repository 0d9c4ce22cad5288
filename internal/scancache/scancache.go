package scancache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bandarscan/internal/domain/models"
	"bandarscan/internal/session"
	"bandarscan/pkg/cache"
	"bandarscan/pkg/logger"
)

// TTL and key-bucket windows track the trading session: results go stale
// fast while the market moves and slowly after the close.
const (
	tradingBucket = time.Minute
	offBucket     = 5 * time.Minute
	tradingTTL    = 2 * time.Minute
	offTTL        = 5 * time.Minute
	hardCeiling   = 10 * time.Minute
	lockTTL       = 30 * time.Second

	keyPrefix = "scan"
)

// Config tunes the manager. Defaults come from DefaultConfig.
type Config struct {
	MaxEntries     int
	MinInstruments int
	AnchorSymbols  []string
}

func DefaultConfig() Config {
	return Config{
		MaxEntries:     32,
		MinInstruments: 5,
		AnchorSymbols:  []string{"BBCA", "BBRI", "TLKM"},
	}
}

type entry struct {
	result    *models.ScanResult
	createdAt time.Time
	ttl       time.Duration
}

type call struct {
	done   chan struct{}
	result *models.ScanResult
	err    error
}

// Status is the admin snapshot of the manager.
type Status struct {
	Entries  int      `json:"entries"`
	MaxSize  int      `json:"maxSize"`
	Keys     []string `json:"keys"`
	OldestAt int64    `json:"oldestAt,omitempty"`
}

// Manager is the session-aware result cache. Keys are time buckets, so
// concurrent requests inside one bucket share a single pipeline run.
type Manager struct {
	cfg   Config
	clock *session.Clock
	log   *logger.Logger
	l2    cache.Service

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*call
}

type Option func(*Manager)

// WithL2 adds a shared cache tier behind the in-process map. Snapshots are
// written through and the recompute lock is taken there, so replicas do not
// stampede the upstream together.
func WithL2(c cache.Service) Option {
	return func(m *Manager) { m.l2 = c }
}

func WithClock(c *session.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func New(cfg Config, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		clock:    session.NewClock(),
		log:      log,
		entries:  make(map[string]*entry),
		inflight: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key buckets the current time so all requests within a window agree on one
// cache slot.
func (m *Manager) Key() string {
	now := m.clock.Current()
	bucket := offBucket
	if session.IsTradingHours(now) {
		bucket = tradingBucket
	}
	return cache.GenerateKeyWithParams(keyPrefix, now.Truncate(bucket).Unix())
}

func (m *Manager) ttl() time.Duration {
	if m.clock.IsTrading() {
		return tradingTTL
	}
	return offTTL
}

// GetOrCompute returns the cached result for the current bucket or runs
// compute exactly once per key, with concurrent callers waiting on the same
// in-flight run. A result that fails validation is never served or stored.
func (m *Manager) GetOrCompute(ctx context.Context, compute func(context.Context) (*models.ScanResult, error)) (*models.ScanResult, bool, error) {
	key := m.Key()

	m.mu.Lock()
	if e, ok := m.entries[key]; ok && m.fresh(e) {
		m.mu.Unlock()
		return e.result, true, nil
	}
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			// Joiners share the run but its result was computed inside
			// their request, so it does not count as a cache hit.
			return c.result, false, c.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	result, err := m.run(ctx, key, compute)

	c.result, c.err = result, err
	close(c.done)

	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()

	return result, false, err
}

func (m *Manager) run(ctx context.Context, key string, compute func(context.Context) (*models.ScanResult, error)) (*models.ScanResult, error) {
	if m.l2 != nil {
		if cached, ok := m.fromL2(ctx, key); ok {
			m.store(key, cached)
			return cached, nil
		}
		lockKey := cache.GenerateKey(key, "lock")
		if locked, err := m.l2.TryLock(ctx, lockKey, lockTTL); err == nil && locked {
			defer func() {
				if err := m.l2.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
					m.log.Warn("scan cache unlock failed", logger.Error(err))
				}
			}()
		}
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(result); err != nil {
		m.log.Warn("scan result failed validation, not cached", logger.Error(err))
		return result, nil
	}

	m.store(key, result)
	if m.l2 != nil {
		if err := m.l2.Set(ctx, key, result, m.ttl()); err != nil {
			m.log.Warn("scan cache L2 write failed", logger.Error(err))
		}
	}
	return result, nil
}

func (m *Manager) fromL2(ctx context.Context, key string) (*models.ScanResult, bool) {
	var result models.ScanResult
	if err := m.l2.Get(ctx, key, &result); err != nil {
		return nil, false
	}
	if err := m.Validate(&result); err != nil {
		return nil, false
	}
	return &result, true
}

// Validate rejects snapshots that look like partial or degenerate runs.
func (m *Manager) Validate(r *models.ScanResult) error {
	if r == nil {
		return fmt.Errorf("nil result")
	}
	if len(r.Stocks) < m.cfg.MinInstruments {
		return fmt.Errorf("only %d instruments, need %d", len(r.Stocks), m.cfg.MinInstruments)
	}
	present := make(map[string]bool, len(r.Stocks))
	categories := make(map[string]bool)
	for i := range r.Stocks {
		present[r.Stocks[i].Symbol] = true
		categories[r.Stocks[i].Signal] = true
	}
	for _, anchor := range m.cfg.AnchorSymbols {
		if !present[anchor] {
			return fmt.Errorf("anchor symbol %s missing", anchor)
		}
	}
	if len(categories) < 2 {
		return fmt.Errorf("degenerate run: every instrument has the same signal")
	}
	return nil
}

func (m *Manager) fresh(e *entry) bool {
	return m.clock.Current().Sub(e.createdAt) < e.ttl
}

func (m *Manager) store(key string, result *models.ScanResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.cfg.MaxEntries {
		m.evictOldest()
	}
	m.entries[key] = &entry{result: result, createdAt: m.clock.Current(), ttl: m.ttl()}
}

// Last returns the newest stored result regardless of freshness. Used as a
// fallback when the upstream is down.
func (m *Manager) Last() (*models.ScanResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *entry
	for _, e := range m.entries {
		if newest == nil || e.createdAt.After(newest.createdAt) {
			newest = e
		}
	}
	if newest == nil {
		return nil, false
	}
	return newest.result, true
}

// Cleanup drops entries past the hard ceiling, returning how many went.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Current()
	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.createdAt) > hardCeiling {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the in-process cache and purges the scan keys from L2.
func (m *Manager) Clear() int {
	m.mu.Lock()
	n := len(m.entries)
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	if m.l2 != nil {
		if err := m.l2.DeleteByPattern(context.Background(), cache.BuildPattern(keyPrefix)); err != nil {
			m.log.Warn("scan cache L2 clear failed", logger.Error(err))
		}
	}
	return n
}

// Status reports entry counts and keys for the admin endpoint.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Entries: len(m.entries), MaxSize: m.cfg.MaxEntries}
	var oldest time.Time
	for key, e := range m.entries {
		st.Keys = append(st.Keys, key)
		if oldest.IsZero() || e.createdAt.Before(oldest) {
			oldest = e.createdAt
		}
	}
	if !oldest.IsZero() {
		st.OldestAt = oldest.Unix()
	}
	return st
}

func (m *Manager) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range m.entries {
		if oldestKey == "" || e.createdAt.Before(oldest) {
			oldestKey, oldest = key, e.createdAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
