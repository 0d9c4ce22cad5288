package repository

import (
	"context"

	"bandarscan/internal/domain/models"
)

// Feed fetches the daily trading summary from the upstream exchange endpoint.
type Feed interface {
	FetchSummary(ctx context.Context) ([]models.RawRecord, error)
}

// Publisher pushes archived scan records to a downstream topic.
type Publisher interface {
	PublishBatch(ctx context.Context, records []models.ArchiveRecord) error
	Close() error
}

// Archive is the persistence sink for computed results.
type Archive interface {
	Init(ctx context.Context) error // ensure tables
	Write(ctx context.Context, records []models.ArchiveRecord) error
	Read(ctx context.Context, limit int, symbol string) ([]models.ArchiveRecord, error)
	Cleanup(ctx context.Context, keepDays int) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for the scan pipeline.
type Metrics interface {
	RecordRun(outcome string)        // completed | failed | fallback
	RecordInstrument(outcome string) // processed | failed
	RecordCache(event string)        // hit | miss | reject | evict
	RecordFetchRetry()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSignal(category string)
}
