// Package ledger implements the append-only PaymentRecord store and
// the two-replica shard partitioning scheme: each replica owns one
// shard for writes, and can read across both for summaries.
package ledger

import (
	"context"
	"fmt"
	"log"

	"rinha-payment-gateway/internal/domain"
)

// Ledger is the storage contract a shard driver must satisfy. Insert is
// idempotent under retry of the commit itself (a primary-key conflict
// is treated as success), but not under retry of the downstream POST —
// that distinction belongs to the caller.
type Ledger interface {
	Insert(ctx context.Context, rec domain.PaymentRecord) error
	Summary(ctx context.Context, fromMs, toMs int64) (domain.Summary, error)
	Close() error
}

// Shard pairs a Ledger with the human-readable name used in logs.
type Shard struct {
	Name   string
	Ledger Ledger
}

// Selector implements a "write-here, read-peer" abstraction: this
// replica writes only to Own, but Summary reads fold in every
// reachable peer shard too, so either replica can answer a full-range
// query on its own.
type Selector struct {
	Own   Shard
	Peers []Shard
}

// Insert commits a record to this replica's own shard only. The
// Dispatcher never writes to a peer shard.
func (s *Selector) Insert(ctx context.Context, rec domain.PaymentRecord) error {
	if err := s.Own.Ledger.Insert(ctx, rec); err != nil {
		return fmt.Errorf("%w: shard %s: %v", domain.ErrStorage, s.Own.Name, err)
	}
	return nil
}

// summaryResult carries one shard's aggregate back from a goroutine.
type summaryResult struct {
	shard   string
	summary domain.Summary
	err     error
}

// Summary reads every shard — own and peer — in parallel, concatenates
// the results, and folds them together. A peer shard that is
// unreachable contributes zero rather than failing the whole query:
// the contract never returns an error to the HTTP layer, it degrades
// to "this replica's best current view".
func (s *Selector) Summary(ctx context.Context, fromMs, toMs int64) domain.Summary {
	shards := append([]Shard{s.Own}, s.Peers...)

	results := make(chan summaryResult, len(shards))
	for _, shard := range shards {
		go func(sh Shard) {
			sum, err := sh.Ledger.Summary(ctx, fromMs, toMs)
			results <- summaryResult{shard: sh.Name, summary: sum, err: err}
		}(shard)
	}

	total := domain.ZeroSummary()
	for range shards {
		res := <-results
		if res.err != nil {
			log.Printf("LEDGER_SUMMARY_SHARD_FAILED shard=%s err=%v", res.shard, res.err)
			continue
		}
		total.Merge(res.summary)
	}
	return total
}

// Close shuts down every shard this selector knows about, own and peer.
func (s *Selector) Close() error {
	var firstErr error
	all := append([]Shard{s.Own}, s.Peers...)
	for _, sh := range all {
		if err := sh.Ledger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close shard %s: %w", sh.Name, err)
		}
	}
	return firstErr
}

// unavailableLedger stands in for a shard that failed to open at
// startup. Reads degrade to empty (so cross-shard summaries still work
// from the peer), writes always fail with ErrStorage.
type unavailableLedger struct {
	cause error
}

func (u *unavailableLedger) Insert(ctx context.Context, rec domain.PaymentRecord) error {
	return fmt.Errorf("%w: shard unavailable: %v", domain.ErrStorage, u.cause)
}

func (u *unavailableLedger) Summary(ctx context.Context, fromMs, toMs int64) (domain.Summary, error) {
	return domain.ZeroSummary(), nil
}

func (u *unavailableLedger) Close() error { return nil }
