package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalQueueDeliversJobs(t *testing.T) {
	q := NewLocalQueue(8, 3, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan CallJob, 1)
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, job CallJob) error {
			got <- job
			return nil
		})
	}()

	job := CallJob{RecordingRef: "rec-1", LocatorHints: map[string]string{"leg": "in"}}
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case delivered := <-got:
		if delivered.RecordingRef != "rec-1" || delivered.LocatorHints["leg"] != "in" {
			t.Fatalf("job mangled in transit: %+v", delivered)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never delivered")
	}
}

func TestLocalQueueRetriesThenDLQ(t *testing.T) {
	q := NewLocalQueue(8, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, _ CallJob) error {
			if attempts.Add(1) == 2 {
				close(done)
			}
			return errors.New("boom")
		})
	}()

	if err := q.Enqueue(ctx, CallJob{RecordingRef: "rec-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected 2 attempts, got %d", attempts.Load())
	}

	deadline := time.After(2 * time.Second)
	for q.DLQSize() != 1 {
		select {
		case <-deadline:
			t.Fatalf("dlq size = %d, want 1", q.DLQSize())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLocalQueueStopsOnCancel(t *testing.T) {
	q := NewLocalQueue(1, 3, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Consume(ctx, func(_ context.Context, _ CallJob) error { return nil })
	}()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not stop on cancel")
	}
}
