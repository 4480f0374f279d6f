package pipeline

import (
	"context"
	"errors"
	"testing"

	"call-insights/internal/analysis"
	"call-insights/internal/calls"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"
)

type fakeProducer struct {
	jobs []queue.CallJob
	err  error
}

func (f *fakeProducer) Enqueue(_ context.Context, job queue.CallJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func TestReprocessIsDestructive(t *testing.T) {
	r := newRig(t, defaultOpts())
	ctx := context.Background()

	if err := r.orch.Process(ctx, queue.CallJob{RecordingRef: "rec-1"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	rec := r.record(t, "rec-1")
	priorAnalysis := rec.AnalysisID
	if priorAnalysis == "" {
		t.Fatal("setup: no analysis to discard")
	}
	if r.vectors.Count() == 0 {
		t.Fatal("setup: no embeddings to discard")
	}

	producer := &fakeProducer{}
	rp := NewReprocessor(r.calls, proclog.NewService(r.logRepo), r.results, r.vectors, producer)
	if err := rp.Reprocess(ctx, rec.ID); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	after := r.record(t, "rec-1")
	if after.Status != calls.StatusPending {
		t.Fatalf("status = %s, want PENDING", after.Status)
	}
	if after.AnalysisID != "" {
		t.Fatalf("analysis id still linked: %q", after.AnalysisID)
	}
	if _, err := r.results.GetByCall(ctx, rec.ID); !errors.Is(err, analysis.ErrNotFound) {
		t.Fatalf("prior analysis still resolves, err=%v", err)
	}
	if r.vectors.Count() != 0 {
		t.Fatalf("stale embeddings remain: %d", r.vectors.Count())
	}
	if len(producer.jobs) != 1 || producer.jobs[0].RecordingRef != "rec-1" {
		t.Fatalf("job not re-enqueued: %+v", producer.jobs)
	}
}

func TestReprocessThenRunReachesCompleted(t *testing.T) {
	r := newRig(t, defaultOpts())
	ctx := context.Background()

	if err := r.orch.Process(ctx, queue.CallJob{RecordingRef: "rec-1"}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	rec := r.record(t, "rec-1")
	first := rec.AnalysisID

	producer := &fakeProducer{}
	rp := NewReprocessor(r.calls, proclog.NewService(r.logRepo), r.results, r.vectors, producer)
	if err := rp.Reprocess(ctx, rec.ID); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if err := r.orch.Process(ctx, producer.jobs[0]); err != nil {
		t.Fatalf("re-run: %v", err)
	}

	after := r.record(t, "rec-1")
	if after.Status != calls.StatusCompleted {
		t.Fatalf("status = %s", after.Status)
	}
	if after.AnalysisID == "" || after.AnalysisID == first {
		t.Fatalf("re-run did not produce a fresh analysis: %q", after.AnalysisID)
	}
	if all, _ := r.calls.List(ctx, calls.ListFilter{}); len(all) != 1 {
		t.Fatalf("re-run duplicated the record: %d rows", len(all))
	}
}

func TestReprocessRequiresRecordingRef(t *testing.T) {
	r := newRig(t, defaultOpts())
	ctx := context.Background()

	rec := &calls.CallRecord{ID: "orphan", RecordingRef: "", Status: calls.StatusFailed}
	if err := r.calls.Create(ctx, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rp := NewReprocessor(r.calls, proclog.NewService(r.logRepo), r.results, r.vectors, &fakeProducer{})
	if err := rp.Reprocess(ctx, "orphan"); !errors.Is(err, ErrNoRecordingRef) {
		t.Fatalf("expected ErrNoRecordingRef, got %v", err)
	}
}

func TestReprocessUnknownCall(t *testing.T) {
	r := newRig(t, defaultOpts())
	rp := NewReprocessor(r.calls, proclog.NewService(r.logRepo), r.results, r.vectors, &fakeProducer{})
	if err := rp.Reprocess(context.Background(), "missing"); !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
