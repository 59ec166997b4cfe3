package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"rinha-payment-gateway/internal/domain"
)

// SQLiteLedger is the default embedded shard driver: a local,
// file-backed relational store with no external process dependency.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite ledger shard at path.
func OpenSQLite(path string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db.SetMaxOpenConns(1) // serialize shard writes

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteLedger{db: db}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payment_records (
			correlation_id TEXT PRIMARY KEY,
			amount TEXT NOT NULL,
			requested_at_ms INTEGER NOT NULL,
			processor_used INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_records_requested_at ON payment_records(requested_at_ms)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	return nil
}

// Insert satisfies Ledger. A primary-key conflict (retry of the commit
// itself) is treated as success.
func (l *SQLiteLedger) Insert(ctx context.Context, rec domain.PaymentRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payment_records (correlation_id, amount, requested_at_ms, processor_used)
		 VALUES (?, ?, ?, ?)`,
		rec.CorrelationID, rec.Amount.String(), rec.RequestedAtMs, int(rec.ProcessorUsed),
	)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

// Summary satisfies Ledger, scanning the requested_at_ms index and
// aggregating in Go rather than in SQL, since amounts are stored as
// text to preserve exact decimal precision. Bounds are inclusive on
// both ends.
func (l *SQLiteLedger) Summary(ctx context.Context, fromMs, toMs int64) (domain.Summary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT amount, processor_used FROM payment_records WHERE requested_at_ms >= ? AND requested_at_ms <= ?`,
		fromMs, toMs,
	)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("scan payment records: %w", err)
	}
	defer rows.Close()

	summary := domain.ZeroSummary()
	for rows.Next() {
		var amountStr string
		var processorUsed int
		if err := rows.Scan(&amountStr, &processorUsed); err != nil {
			return domain.Summary{}, fmt.Errorf("scan row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
		}
		summary.Add(domain.PaymentRecord{
			Amount:        amount,
			ProcessorUsed: domain.ProcessorKind(processorUsed),
		})
	}
	if err := rows.Err(); err != nil {
		return domain.Summary{}, fmt.Errorf("iterate payment records: %w", err)
	}
	return summary, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
