package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rinha-payment-gateway/internal/domain"
)

func TestPushPopFIFOOrder(t *testing.T) {
	q := New()
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		q.Push(domain.PaymentRequest{CorrelationID: string(rune('a' + i)), Amount: decimal.NewFromInt(1)})
	}
	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}

	for i := 0; i < 5; i++ {
		req, ok := q.Pop(done)
		if !ok {
			t.Fatal("Pop() returned ok=false unexpectedly")
		}
		want := string(rune('a' + i))
		if req.CorrelationID != want {
			t.Fatalf("Pop() order broken: got %s, want %s", req.CorrelationID, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after draining", q.Len())
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan struct{})
	result := make(chan domain.PaymentRequest, 1)

	go func() {
		req, ok := q.Pop(done)
		if ok {
			result <- req
		}
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("Pop() returned before any Push()")
	default:
	}

	q.Push(domain.PaymentRequest{CorrelationID: "late", Amount: decimal.NewFromInt(1)})

	select {
	case req := <-result:
		if req.CorrelationID != "late" {
			t.Fatalf("got %s, want late", req.CorrelationID)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never returned after Push()")
	}
}

func TestPopUnblocksOnDone(t *testing.T) {
	q := New()
	done := make(chan struct{})

	okCh := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(done)
		okCh <- ok
	}()

	close(done)
	select {
	case ok := <-okCh:
		if ok {
			t.Fatal("Pop() should return ok=false once done is closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never returned after done was closed")
	}
}

func TestRequeuePreservesItem(t *testing.T) {
	q := New()
	done := make(chan struct{})

	req := domain.PaymentRequest{CorrelationID: "retry-me", Amount: decimal.NewFromInt(42)}
	q.Requeue(req)

	got, ok := q.Pop(done)
	if !ok {
		t.Fatal("Pop() returned ok=false")
	}
	if got.CorrelationID != "retry-me" {
		t.Fatalf("got %s, want retry-me", got.CorrelationID)
	}
}

func TestConcurrentPushPop(t *testing.T) {
	q := New()
	done := make(chan struct{})
	defer close(done)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			q.Push(domain.PaymentRequest{CorrelationID: "x", Amount: decimal.NewFromInt(1)})
		}(i)
	}
	wg.Wait()

	seen := 0
	for seen < n {
		if _, ok := q.Pop(done); ok {
			seen++
		}
	}
	if seen != n {
		t.Fatalf("popped %d items, want %d", seen, n)
	}
}
