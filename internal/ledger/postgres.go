package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "github.com/lib/pq"

	"rinha-payment-gateway/internal/domain"
)

// PostgresLedger is the non-embedded shard driver option. Selected
// with LEDGER_DRIVER=postgres for deployments that prefer a shared
// database process over a shared filesystem.
type PostgresLedger struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres ledger: %w", err)
	}
	if err := createPostgresSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresLedger{db: db}, nil
}

func createPostgresSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payment_records (
			correlation_id TEXT PRIMARY KEY,
			amount NUMERIC(12,2) NOT NULL,
			requested_at_ms BIGINT NOT NULL,
			processor_used SMALLINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_records_requested_at ON payment_records(requested_at_ms)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create postgres schema: %w", err)
		}
	}
	return nil
}

func (l *PostgresLedger) Insert(ctx context.Context, rec domain.PaymentRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO payment_records (correlation_id, amount, requested_at_ms, processor_used)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (correlation_id) DO NOTHING`,
		rec.CorrelationID, rec.Amount.String(), rec.RequestedAtMs, int(rec.ProcessorUsed),
	)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Summary(ctx context.Context, fromMs, toMs int64) (domain.Summary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT amount, processor_used FROM payment_records WHERE requested_at_ms >= $1 AND requested_at_ms <= $2`,
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

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
