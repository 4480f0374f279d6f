package pipeline

import (
	"context"
	"errors"
	"fmt"

	"call-insights/internal/analysis"
	"call-insights/internal/calls"
	"call-insights/internal/embeddings"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"
	"call-insights/pkg/logger"
)

var ErrNoRecordingRef = errors.New("pipeline: call has no recording ref to reprocess from")

// Reprocessor is the administrative re-run operation. It is
// deliberately destructive: the prior analysis result and chunk
// embeddings are discarded, no history is kept.
type Reprocessor struct {
	calls    calls.Repository
	logs     *proclog.Service
	results  analysis.Repository
	vectors  embeddings.Repository
	producer queue.Producer
}

func NewReprocessor(callRepo calls.Repository, logs *proclog.Service, results analysis.Repository, vectors embeddings.Repository, producer queue.Producer) *Reprocessor {
	return &Reprocessor{
		calls:    callRepo,
		logs:     logs,
		results:  results,
		vectors:  vectors,
		producer: producer,
	}
}

// Reprocess resets the call to PENDING and re-enqueues its job. The
// record stays PENDING until a worker picks the job up again.
func (r *Reprocessor) Reprocess(ctx context.Context, callID string) error {
	rec, err := r.calls.GetByID(ctx, callID)
	if err != nil {
		return fmt.Errorf("pipeline: reprocess lookup: %w", err)
	}
	if rec.RecordingRef == "" {
		return ErrNoRecordingRef
	}

	if err := r.results.DeleteByCall(ctx, rec.ID); err != nil {
		return fmt.Errorf("pipeline: discard prior analysis: %w", err)
	}
	// Stale chunks would interleave with the re-run's; clear them too.
	if err := r.vectors.DeleteByCall(ctx, rec.ID); err != nil {
		return fmt.Errorf("pipeline: discard prior embeddings: %w", err)
	}

	rec.AnalysisID = ""
	rec.Status = calls.StatusPending
	if err := r.calls.Update(ctx, &rec); err != nil {
		return fmt.Errorf("pipeline: reset call for reprocess: %w", err)
	}
	_ = r.logs.Append(ctx, rec.ID, proclog.SeverityInfo, "reprocess requested, prior analysis discarded")

	if err := r.producer.Enqueue(ctx, queue.CallJob{RecordingRef: rec.RecordingRef}); err != nil {
		return fmt.Errorf("pipeline: re-enqueue job: %w", err)
	}
	logger.From(ctx).Info("call queued for reprocessing", "call_id", rec.ID, "recording_ref", rec.RecordingRef)
	return nil
}
