package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/toplanma/internal/domain/model"
)

func job(i int) Job {
	return Job{ProvinceCode: 31, DistrictID: "1", Neighborhood: model.Unit{ID: model.ID("n"), Name: "Odabaşı"}, Index: i}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job(1)); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Index != 1 {
		t.Errorf("expected job 1, got %d", got.Index)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_BlocksWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job(1)); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(timeoutCtx, job(2)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded on full queue, got %v", err)
	}

	// Draining makes room for a waiting producer.
	done := make(chan error, 1)
	go func() { done <- q.Enqueue(ctx, job(3)) }()
	<-q.Dequeue(ctx)
	if err := <-done; err != nil {
		t.Errorf("expected blocked enqueue to succeed, got %v", err)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, job(i)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, job(9)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued jobs are still delivered after close.
	count := 0
	for range q.Dequeue(ctx) {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 drained jobs, got %d", count)
	}

	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestInMemoryQueue_Concurrent(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := q.Enqueue(ctx, job(p*100+i)); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(p)
	}

	received := make(chan int)
	go func() {
		n := 0
		for range q.Dequeue(ctx) {
			n++
		}
		received <- n
	}()

	wg.Wait()
	_ = q.Close()
	if n := <-received; n != 100 {
		t.Errorf("expected 100 jobs, got %d", n)
	}
}
