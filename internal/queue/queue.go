// Package queue implements the intake queue between the HTTP handlers
// and the Dispatcher: an unbounded, multi-producer/multi-consumer FIFO
// of PaymentRequest. No persistence — on shutdown, whatever is still
// buffered is lost.
package queue

import (
	"container/list"
	"sync"

	"rinha-payment-gateway/internal/domain"
)

// Queue is safe for any number of concurrent Push callers and any
// number of concurrent Pop callers. It is unbounded: Push never blocks
// and never drops.
type Queue struct {
	mu     sync.Mutex
	items  *list.List
	notify chan struct{}
}

func New() *Queue {
	return &Queue{
		items:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues a request at the tail. O(1) amortized, so it can be
// the only synchronous step of POST /payments.
func (q *Queue) Push(req domain.PaymentRequest) {
	q.mu.Lock()
	q.items.PushBack(req)
	q.mu.Unlock()
	q.wake()
}

// Requeue places a request back at the tail after a failed attempt.
// Semantically identical to Push; kept as a distinct name so call
// sites document intent.
func (q *Queue) Requeue(req domain.PaymentRequest) {
	q.Push(req)
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until an item is available or done is closed, in which
// case it returns the zero value and ok=false.
func (q *Queue) Pop(done <-chan struct{}) (req domain.PaymentRequest, ok bool) {
	for {
		q.mu.Lock()
		front := q.items.Front()
		if front != nil {
			q.items.Remove(front)
		}
		q.mu.Unlock()

		if front != nil {
			return front.Value.(domain.PaymentRequest), true
		}

		select {
		case <-done:
			return domain.PaymentRequest{}, false
		case <-q.notify:
		}
	}
}

// Len reports the current queue depth, for diagnostics and tests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
