package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bandarscan/internal/domain/models"
	pkgch "bandarscan/pkg/clickhouse"
	applogger "bandarscan/pkg/logger"
)

// CHArchive implements Archive backed by ClickHouse. One row per instrument
// per completed run.
type CHArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHArchive(ch *pkgch.Client) *CHArchive {
	return &CHArchive{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHArchive) SetLogger(l *applogger.Logger) { s.l = l }

const createScansTable = `
    CREATE TABLE IF NOT EXISTS bandar_scans (
        symbol            String,
        name              String,
        price             Float64,
        change            Float64,
        change_percent    Float64,
        volume            Float64,
        signal            LowCardinality(String),
        signal_strength   Float64,
        bandar_signal     LowCardinality(String),
        bandar_confidence UInt8,
        bandar_pattern    String,
        rsi               Nullable(Float64),
        sma               Nullable(Float64),
        ema               Nullable(Float64),
        vwap              Nullable(Float64),
        ts                DateTime
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMMDD(ts)
    ORDER BY (symbol, ts)
`

// Init ensures the archive table exists.
func (s *CHArchive) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createScansTable); err != nil {
		return fmt.Errorf("create bandar_scans: %w", err)
	}
	return nil
}

const insertScan = `
    INSERT INTO bandar_scans (
        symbol, name, price, change, change_percent, volume,
        signal, signal_strength, bandar_signal, bandar_confidence,
        bandar_pattern, rsi, sma, ema, vwap, ts
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Write appends one batch inside a single transaction, the driver's bulk
// insert path.
func (s *CHArchive) Write(ctx context.Context, records []models.ArchiveRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertScan)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx,
			r.Symbol, r.Name, r.Price, r.Change, r.ChangePercent, r.Volume,
			r.Signal, r.SignalStrength, r.BandarSignal, uint8(r.BandarConfidence),
			r.BandarPattern, r.RSI, r.SMA, r.EMA, r.VWAP, r.Timestamp,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert archive row %s: %w", r.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive batch: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse archive write ok",
			applogger.Int("rows", len(records)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Read returns the newest archived rows, optionally restricted to one symbol.
func (s *CHArchive) Read(ctx context.Context, limit int, symbol string) ([]models.ArchiveRecord, error) {
	const base = `
        SELECT symbol, name, price, change, change_percent, volume,
               signal, signal_strength, bandar_signal, bandar_confidence,
               bandar_pattern, rsi, sma, ema, vwap, ts
        FROM bandar_scans
    `
	q := base
	args := []interface{}{}
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse archive read error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("read archive: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchiveRecord, 0, limit)
	for rows.Next() {
		var r models.ArchiveRecord
		var confidence uint8
		if err := rows.Scan(
			&r.Symbol, &r.Name, &r.Price, &r.Change, &r.ChangePercent, &r.Volume,
			&r.Signal, &r.SignalStrength, &r.BandarSignal, &confidence,
			&r.BandarPattern, &r.RSI, &r.SMA, &r.EMA, &r.VWAP, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		r.BandarConfidence = int(confidence)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive rows: %w", err)
	}
	return out, nil
}

// Cleanup drops rows older than keepDays. ClickHouse mutations run async, so
// the affected count is the pre-delete match count.
func (s *CHArchive) Cleanup(ctx context.Context, keepDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -keepDays)

	var matched int64
	countQ := `SELECT count() FROM bandar_scans WHERE ts < ?`
	if err := s.db.QueryRowContext(ctx, countQ, cutoff).Scan(&matched); err != nil {
		return 0, fmt.Errorf("count stale archive rows: %w", err)
	}

	deleteQ := `ALTER TABLE bandar_scans DELETE WHERE ts < ?`
	if _, err := s.db.ExecContext(ctx, deleteQ, cutoff); err != nil {
		return 0, fmt.Errorf("cleanup archive: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse archive cleanup submitted",
			applogger.Int64("rows", matched),
			applogger.Int("keep_days", keepDays),
		)
	}
	return matched, nil
}

func (s *CHArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHArchive) Close() error {
	return s.db.Close()
}
