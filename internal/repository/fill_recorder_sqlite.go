package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"BarPulse/internal/domain/models"
)

// SQLiteFillRecorder keeps the fill ledger in a local SQLite file, for
// deployments without a Kafka cluster.
type SQLiteFillRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteFillRecorder opens (or creates) the database and runs the
// migration.
func NewSQLiteFillRecorder(path string) (*SQLiteFillRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteFillRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteFillRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fills (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			portfolio  TEXT NOT NULL,
			identifier TEXT NOT NULL,
			side       TEXT NOT NULL,
			price      REAL NOT NULL,
			quantity   INTEGER NOT NULL,
			operation  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_ts ON fills(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_identifier ON fills(identifier)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

// Record implements repository.FillRecorder.
func (r *SQLiteFillRecorder) Record(ctx context.Context, fill *models.Fill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO fills
		(timestamp, portfolio, identifier, side, price, quantity, operation)
		VALUES (?,?,?,?,?,?,?)`,
		fill.Time.Unix(), fill.Portfolio, fill.Identifier,
		string(fill.Side), fill.Price, fill.Quantity, fill.Operation,
	)
	return err
}

// Close implements repository.FillRecorder.
func (r *SQLiteFillRecorder) Close() error {
	return r.db.Close()
}
