package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"call-insights/internal/queue"
)

func TestPoolProcessesJobs(t *testing.T) {
	q := queue.NewLocalQueue(16, 3, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int32
	pool := NewPool(q, func(_ context.Context, _ queue.CallJob) error {
		handled.Add(1)
		return nil
	}, 3, nil)
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, queue.CallJob{RecordingRef: "rec"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	deadline := time.After(3 * time.Second)
	for handled.Load() != 5 {
		select {
		case <-deadline:
			t.Fatalf("handled %d of 5 jobs", handled.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	q := queue.NewLocalQueue(1, 3, nil)
	ctx, cancel := context.WithCancel(context.Background())

	pool := NewPool(q, func(_ context.Context, _ queue.CallJob) error { return nil }, 2, nil)
	pool.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not drain after cancel")
	}
}
