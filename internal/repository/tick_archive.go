// Package repository holds the infrastructure-backed implementations of
// the domain interfaces: the ClickHouse snapshot archive and the fill
// recorders.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BarPulse/internal/domain/models"
)

// ClickHouseArchive persists deduplicated intraday snapshots. The table is
// partitioned by day; the history poller asks for the high-water sequence
// number per (ticker, day) before appending.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive wraps an open connection pool. table is the fully
// qualified table name.
func NewClickHouseArchive(db *sql.DB, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: db, table: table}
}

// Schema returns the idempotent DDL for the archive, for use with the
// client's InitSchema.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ticker String,
			seq Int64,
			ts DateTime,
			last_price Float64,
			volume Float64
		) ENGINE = MergeTree
		PARTITION BY toYYYYMMDD(ts)
		ORDER BY (ticker, seq)`, database, table),
	}
}

// MaxSequence implements repository.SnapshotArchive.
func (a *ClickHouseArchive) MaxSequence(ctx context.Context, ticker string, day time.Time) (int64, error) {
	query := fmt.Sprintf(
		"SELECT max(seq) FROM %s WHERE ticker = ? AND toDate(ts) = ?", a.table)

	var max sql.NullInt64
	err := a.db.QueryRowContext(ctx, query, ticker, day.Format("2006-01-02")).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("archive max sequence: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// Append implements repository.SnapshotArchive with one multi-row insert.
func (a *ClickHouseArchive) Append(ctx context.Context, rows []models.HistoricalRow) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (ticker, seq, ts, last_price, volume) VALUES ", a.table)
	args := make([]interface{}, 0, len(rows)*5)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, r.Ticker, r.Sequence, r.Time, r.LastPrice, r.Volume)
	}

	if _, err := a.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("archive append: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the ClickHouse client.
func (a *ClickHouseArchive) Close() error { return nil }
