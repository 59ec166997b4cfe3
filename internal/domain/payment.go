// Package domain holds the core types shared by every layer of the
// gateway: the in-flight payment request, the ledger record it becomes
// once a processor accepts it, and the summary shape returned to callers.
package domain

import (
	"github.com/shopspring/decimal"
)

// ProcessorKind identifies which downstream processor handled a payment.
type ProcessorKind int

const (
	Default ProcessorKind = iota
	Fallback
)

func (k ProcessorKind) String() string {
	if k == Fallback {
		return "fallback"
	}
	return "default"
}

// PaymentRequest is the in-flight message carried on the intake queue.
// RequestedAtMs is intentionally left unset by the HTTP handler: the
// Dispatcher stamps it immediately before the downstream POST, because
// the scoring oracle compares against the timestamp sent downstream,
// not the one observed at intake.
type PaymentRequest struct {
	CorrelationID string
	Amount        decimal.Decimal
	RequestedAtMs int64
}

// PaymentRecord is a row committed to a ledger shard once a downstream
// processor has returned a terminal response for exactly this payment.
type PaymentRecord struct {
	CorrelationID string
	Amount        decimal.Decimal
	RequestedAtMs int64
	ProcessorUsed ProcessorKind
}

// ProcessorSummary is one bucket of a payments-summary response.
type ProcessorSummary struct {
	TotalRequests int64           `json:"totalRequests"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// Summary is the full /payments-summary response shape.
type Summary struct {
	Default  ProcessorSummary `json:"default"`
	Fallback ProcessorSummary `json:"fallback"`
}

// ZeroSummary returns an all-zero summary, used whenever the query range
// is missing, malformed, or simply empty.
func ZeroSummary() Summary {
	return Summary{
		Default:  ProcessorSummary{TotalAmount: decimal.Zero},
		Fallback: ProcessorSummary{TotalAmount: decimal.Zero},
	}
}

// Add folds a single record into the matching bucket of a Summary.
func (s *Summary) Add(rec PaymentRecord) {
	switch rec.ProcessorUsed {
	case Default:
		s.Default.TotalRequests++
		s.Default.TotalAmount = s.Default.TotalAmount.Add(rec.Amount)
	case Fallback:
		s.Fallback.TotalRequests++
		s.Fallback.TotalAmount = s.Fallback.TotalAmount.Add(rec.Amount)
	}
}

// Merge combines another summary into this one, used to fold the peer
// shard's aggregate into this replica's own before responding. Merge
// is commutative regardless of call order.
func (s *Summary) Merge(other Summary) {
	s.Default.TotalRequests += other.Default.TotalRequests
	s.Default.TotalAmount = s.Default.TotalAmount.Add(other.Default.TotalAmount)
	s.Fallback.TotalRequests += other.Fallback.TotalRequests
	s.Fallback.TotalAmount = s.Fallback.TotalAmount.Add(other.Fallback.TotalAmount)
}
