package usecase

import (
	"context"
	"fmt"
	"time"

	"bandarscan/internal/domain/models"
	drepo "bandarscan/internal/domain/repository"
	applogger "bandarscan/pkg/logger"
)

// Sink names for the archiver backend.
const (
	SinkClickHouse = "clickhouse"
	SinkKafka      = "kafka"
	SinkBoth       = "both"
)

// DefaultKeepDays bounds how much scan history the archive retains.
const DefaultKeepDays = 7

// Archiver persists completed scan results to the configured sinks. Archive
// failures never fail a scan; they are logged and counted.
type Archiver struct {
	sink      string
	keepDays  int
	archive   drepo.Archive
	publisher drepo.Publisher
	metrics   drepo.Metrics
	log       *applogger.Logger
}

func NewArchiver(sink string, archive drepo.Archive, publisher drepo.Publisher, metrics drepo.Metrics, log *applogger.Logger) *Archiver {
	return &Archiver{
		sink:      sink,
		keepDays:  DefaultKeepDays,
		archive:   archive,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// SetKeepDays overrides the retention window.
func (a *Archiver) SetKeepDays(days int) {
	if days > 0 {
		a.keepDays = days
	}
}

// Store projects the result onto archive records and writes them to every
// configured sink.
func (a *Archiver) Store(ctx context.Context, result *models.ScanResult) {
	if result == nil || len(result.Stocks) == 0 {
		return
	}
	ts := time.UnixMilli(result.Timestamp)
	records := make([]models.ArchiveRecord, 0, len(result.Stocks))
	for i := range result.Stocks {
		records = append(records, result.Stocks[i].ToArchiveRecord(ts))
	}

	if (a.sink == SinkClickHouse || a.sink == SinkBoth) && a.archive != nil {
		if err := a.archive.Write(ctx, records); err != nil {
			a.log.Error("archive write failed", applogger.Error(err))
			if a.metrics != nil {
				a.metrics.RecordError("archive")
			}
		}
	}
	if (a.sink == SinkKafka || a.sink == SinkBoth) && a.publisher != nil {
		if err := a.publisher.PublishBatch(ctx, records); err != nil {
			a.log.Error("scan publish failed", applogger.Error(err))
			if a.metrics != nil {
				a.metrics.RecordError("publish")
			}
		}
	}
}

// History reads back archived records for the history endpoint.
func (a *Archiver) History(ctx context.Context, limit int, symbol string) ([]models.ArchiveRecord, error) {
	if a.archive == nil {
		return nil, fmt.Errorf("archive not configured")
	}
	return a.archive.Read(ctx, limit, symbol)
}

// Cleanup removes archived rows past the retention window.
func (a *Archiver) Cleanup(ctx context.Context) (int64, error) {
	if a.archive == nil {
		return 0, fmt.Errorf("archive not configured")
	}
	return a.archive.Cleanup(ctx, a.keepDays)
}

// Health pings the archive store. Nil when no store is configured.
func (a *Archiver) Health(ctx context.Context) error {
	if a.archive == nil {
		return nil
	}
	return a.archive.Health(ctx)
}
