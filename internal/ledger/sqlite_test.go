package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"rinha-payment-gateway/internal/domain"
)

func openTestSQLite(t *testing.T) *SQLiteLedger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteInsertAndSummary(t *testing.T) {
	l := openTestSQLite(t)
	ctx := context.Background()

	records := []domain.PaymentRecord{
		{CorrelationID: "a", Amount: decimal.NewFromFloat(10.00), RequestedAtMs: 1000, ProcessorUsed: domain.Default},
		{CorrelationID: "b", Amount: decimal.NewFromFloat(5.50), RequestedAtMs: 2000, ProcessorUsed: domain.Fallback},
		{CorrelationID: "c", Amount: decimal.NewFromFloat(1.25), RequestedAtMs: 5000, ProcessorUsed: domain.Default},
	}
	for _, rec := range records {
		if err := l.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", rec.CorrelationID, err)
		}
	}

	summary, err := l.Summary(ctx, 0, 3000)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Default.TotalRequests != 1 {
		t.Fatalf("default requests = %d, want 1", summary.Default.TotalRequests)
	}
	if !summary.Default.TotalAmount.Equal(decimal.NewFromFloat(10.00)) {
		t.Fatalf("default amount = %s, want 10.00", summary.Default.TotalAmount)
	}
	if summary.Fallback.TotalRequests != 1 {
		t.Fatalf("fallback requests = %d, want 1", summary.Fallback.TotalRequests)
	}
}

func TestSQLiteInsertIdempotentOnConflict(t *testing.T) {
	l := openTestSQLite(t)
	ctx := context.Background()

	rec := domain.PaymentRecord{CorrelationID: "dup", Amount: decimal.NewFromFloat(3), RequestedAtMs: 100, ProcessorUsed: domain.Default}
	if err := l.Insert(ctx, rec); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if err := l.Insert(ctx, rec); err != nil {
		t.Fatalf("second Insert() of same correlationId must not error, got %v", err)
	}

	summary, err := l.Summary(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Default.TotalRequests != 1 {
		t.Fatalf("requests = %d, want 1 after duplicate insert", summary.Default.TotalRequests)
	}
}

func TestSQLiteSummaryBoundsInclusive(t *testing.T) {
	l := openTestSQLite(t)
	ctx := context.Background()

	if err := l.Insert(ctx, domain.PaymentRecord{CorrelationID: "edge", Amount: decimal.NewFromFloat(1), RequestedAtMs: 1000, ProcessorUsed: domain.Default}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	summary, err := l.Summary(ctx, 1000, 1000)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Default.TotalRequests != 1 {
		t.Fatal("Summary() bounds must be inclusive on both ends")
	}
}

func TestSQLiteSummaryEmptyRangeIsZero(t *testing.T) {
	l := openTestSQLite(t)
	summary, err := l.Summary(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !summary.Default.TotalAmount.IsZero() || summary.Default.TotalRequests != 0 {
		t.Fatal("Summary() over empty ledger must be all zero")
	}
}
