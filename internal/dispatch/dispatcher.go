// Package dispatch implements the Dispatcher loop: pick a healthy
// processor in fixed preference order, send, commit on terminal
// response, requeue on failure.
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"rinha-payment-gateway/internal/breaker"
	"rinha-payment-gateway/internal/config"
	"rinha-payment-gateway/internal/domain"
	"rinha-payment-gateway/internal/ledger"
	"rinha-payment-gateway/internal/processor"
	"rinha-payment-gateway/internal/queue"
)

// Route is one attemptable destination: a processor's state, its
// outbound client, and the circuit breaker gating repeated attempts
// against it between health probes.
type Route struct {
	Kind    domain.ProcessorKind
	State   *processor.State
	Client  *processor.Client
	Breaker *breaker.CircuitBreaker
}

// Dispatcher drains the intake queue and routes each request to a
// processor. Routes must be supplied in fixed preference order:
// [Default, Fallback].
type Dispatcher struct {
	queue  *queue.Queue
	routes []*Route
	ledger *ledger.Selector
}

func New(q *queue.Queue, routes []*Route, sel *ledger.Selector) *Dispatcher {
	return &Dispatcher{queue: q, routes: routes, ledger: sel}
}

// Run blocks until ctx is cancelled. Safe to run as one goroutine or
// fanned out across several, since preference order is applied
// per-attempt and requeue-on-failure holds regardless — each call is
// self-contained.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if d.allUnhealthy() {
			// Don't dequeue while both processors are down, to
			// preserve ordering and avoid head-of-line thrashing.
			select {
			case <-ctx.Done():
				return
			case <-time.After(config.BothDownPollInterval):
			}
			continue
		}

		req, ok := d.queue.Pop(ctx.Done())
		if !ok {
			return
		}

		if !d.attempt(ctx, req) {
			d.queue.Requeue(req)
		}
	}
}

func (d *Dispatcher) allUnhealthy() bool {
	for _, r := range d.routes {
		if r.State.Healthy() {
			return false
		}
	}
	return true
}

// attempt tries every route in fixed preference order, stopping at the
// first terminal success.
func (d *Dispatcher) attempt(ctx context.Context, req domain.PaymentRequest) bool {
	for _, route := range d.routes {
		if !route.State.Healthy() {
			continue
		}
		if !route.Breaker.Allow() {
			continue
		}

		if d.sendAndRecord(ctx, route, req) {
			return true
		}
	}
	return false
}

// sendAndRecord sends req through a single route and, on a terminal
// response, commits it to the ledger.
func (d *Dispatcher) sendAndRecord(ctx context.Context, route *Route, req domain.PaymentRequest) bool {
	minLatencyMs := route.State.MinLatencyMs()

	// Soft pacing: avoid hammering a processor that just reported it
	// is slow.
	if minLatencyMs > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(minLatencyMs) * time.Millisecond):
		}
	}

	// Stamp requestedAtMs, build the payload, and POST.
	outcome := route.Client.Send(ctx, &req, minLatencyMs)
	if outcome == processor.SendFailure {
		// The Dispatcher marks the processor unhealthy conservatively
		// on a send failure, ahead of the next scheduled probe.
		route.State.SetHealthy(false)
		route.Breaker.RecordFailure()
		return false
	}

	route.Breaker.RecordSuccess()

	rec := domain.PaymentRecord{
		CorrelationID: req.CorrelationID,
		Amount:        req.Amount,
		RequestedAtMs: req.RequestedAtMs,
		ProcessorUsed: route.Kind,
	}
	if err := d.ledger.Insert(ctx, rec); err != nil {
		// The processor already decided this payment; a storage
		// failure here is the one remaining correctness hole. Retry
		// once with a short backoff before accepting the drop.
		// attemptID only threads through these log
		// lines, so a retried commit's two log entries can be
		// correlated without touching the ledger schema.
		attemptID := uuid.New().String()
		log.Printf("LEDGER_COMMIT_FAILED attemptId=%s correlationId=%s processor=%s err=%v — retrying once", attemptID, req.CorrelationID, route.Kind, err)
		time.Sleep(20 * time.Millisecond)
		if err := d.ledger.Insert(ctx, rec); err != nil {
			log.Printf("LEDGER_COMMIT_DROPPED attemptId=%s correlationId=%s processor=%s err=%v", attemptID, req.CorrelationID, route.Kind, err)
		}
	}
	return true
}
