package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"call-insights/internal/ai"
	"call-insights/internal/analysis"
	"call-insights/internal/calls"
	"call-insights/internal/directory"
	"call-insights/internal/embeddings"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"
	"call-insights/internal/recordings"
	"call-insights/internal/storage"
	"call-insights/internal/transcribe"
	"call-insights/pkg/logger"
)

// Options tunes per-installation pipeline behaviour.
type Options struct {
	// AgentExtensionPrefix is the token prefix that marks an internal
	// extension in CDR fields ("ext" matches "ext204").
	AgentExtensionPrefix string
	ChunkSize            int
	ChunkOverlap         int
	// EmbeddingsEnabled disables the chunk/embed stage wholesale when
	// false; the call still completes.
	EmbeddingsEnabled bool
}

// Deps are the collaborators one orchestrator drives.
type Deps struct {
	Calls     calls.Repository
	Logs      *proclog.Service
	Agents    directory.AgentRepository
	Companies directory.CompanyRepository
	Lookup    directory.Lookup

	Source      recordings.Source
	Transcriber transcribe.Transcriber
	Store       storage.ObjectStore

	Embedder  ai.Embedder
	Completer ai.Completer
	Vectors   embeddings.Repository

	Analyzer *analysis.Analyzer
	Results  analysis.Repository
}

// Orchestrator drives one CallJob through the full ingestion pipeline:
// fetch, attribute, store, transcribe, embed, resolve, analyze. It is
// the only writer of CallRecord rows.
//
// A returned error means an operational failure the queue should retry
// or surface. Business outcomes (blank transcript, internal call) set a
// terminal status and return nil.
type Orchestrator struct {
	deps    Deps
	opts    Options
	chunker *Chunker
	clock   func() time.Time
}

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	if opts.AgentExtensionPrefix == "" {
		opts.AgentExtensionPrefix = "ext"
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 200
	}
	return &Orchestrator{
		deps:    deps,
		opts:    opts,
		chunker: NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		clock:   time.Now,
	}
}

// Process runs one job start to finish. Safe to call again with a ref
// that already completed (idempotent no-op) or that was left mid-run by
// a crash (resume in place).
func (o *Orchestrator) Process(ctx context.Context, job queue.CallJob) error {
	log := logger.From(ctx).With("recording_ref", job.RecordingRef)
	if strings.TrimSpace(job.RecordingRef) == "" {
		return errors.New("pipeline: job has no recording ref")
	}

	rec, err := o.lookupExisting(ctx, job.RecordingRef)
	if err != nil {
		return err
	}
	if rec != nil && rec.Status == calls.StatusCompleted {
		log.Info("duplicate delivery for completed call, skipping", "call_id", rec.ID)
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo, "duplicate job delivery ignored, call already completed")
		return nil
	}

	// Fetch failures abort before any status write: the row may not
	// exist yet, and a resume must stay resumable.
	recording, err := o.deps.Source.Fetch(ctx, job.RecordingRef, job.LocatorHints)
	if err != nil {
		return fmt.Errorf("pipeline: fetch recording %s: %w", job.RecordingRef, err)
	}

	extension := ExtractExtension(recording.CDR, o.opts.AgentExtensionPrefix)

	rec, err = o.beginProcessing(ctx, rec, job.RecordingRef, recording, extension)
	if err != nil {
		return err
	}
	if rec.Status == calls.StatusCompleted {
		// Lost the insert race to a worker that already finished.
		log.Info("call completed by a concurrent worker, skipping", "call_id", rec.ID)
		return nil
	}
	log = log.With("call_id", rec.ID)

	if err := o.storeRecording(ctx, rec, job.RecordingRef, recording); err != nil {
		return o.fail(ctx, rec, err)
	}

	transcript, outcome, err := o.transcribeStage(ctx, rec, recording)
	if err != nil {
		return o.fail(ctx, rec, err)
	}
	if outcome {
		return nil
	}

	o.storeTranscript(ctx, rec, job.RecordingRef, transcript)

	if rec.AgentID == "" {
		o.attributeAgentByLLM(ctx, rec, transcript)
	}

	o.embedStage(ctx, rec, transcript)

	number := ExtractExternalNumber(recording.CDR)
	if number == "" {
		return o.finishInternalCall(ctx, rec, "no external number found in call detail record")
	}

	company, err := o.resolveCompany(ctx, rec, number)
	if err != nil {
		if errors.Is(err, directory.ErrPhoneRequired) {
			return o.finishInternalCall(ctx, rec, "directory reported phone number required, treating as internal call")
		}
		return o.fail(ctx, rec, err)
	}

	if err := o.analyzeStage(ctx, rec, company, number, transcript); err != nil {
		return o.fail(ctx, rec, err)
	}

	rec.Status = calls.StatusCompleted
	if err := o.update(ctx, rec); err != nil {
		return o.fail(ctx, rec, err)
	}
	_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeveritySuccess, "pipeline completed")
	log.Info("call processing completed")
	return nil
}

func (o *Orchestrator) lookupExisting(ctx context.Context, ref string) (*calls.CallRecord, error) {
	existing, err := o.deps.Calls.GetByRecordingRef(ctx, ref)
	if errors.Is(err, calls.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: lookup call by ref: %w", err)
	}
	return &existing, nil
}

// beginProcessing creates the CallRecord (or resumes the existing one),
// links the CDR-attributed agent, and moves the row to PROCESSING.
func (o *Orchestrator) beginProcessing(ctx context.Context, rec *calls.CallRecord, ref string, recording recordings.Recording, extension string) (*calls.CallRecord, error) {
	if rec == nil {
		rec = &calls.CallRecord{
			ID:           uuid.NewString(),
			RecordingRef: ref,
		}
	}
	rec.Status = calls.StatusProcessing
	rec.StartTime = recording.StartTime
	rec.EndTime = recording.EndTime
	rec.DurationSeconds = recording.DurationSeconds()
	if rec.ProcessingMetadata == nil {
		rec.ProcessingMetadata = make(map[string]string)
	}

	if extension != "" {
		agent, err := o.deps.Agents.FindOrCreateByExtension(ctx, extension, "")
		if err != nil {
			return nil, fmt.Errorf("pipeline: attribute agent by extension %s: %w", extension, err)
		}
		rec.AgentID = agent.ID
		rec.ProcessingMetadata["agent.source"] = "cdr"
	}

	if rec.CreatedAt.IsZero() {
		if err := o.deps.Calls.Create(ctx, rec); err != nil {
			if !errors.Is(err, calls.ErrDuplicateRef) {
				return nil, fmt.Errorf("pipeline: create call record: %w", err)
			}
			// Lost an insert race with another worker; resume the
			// winner's row.
			winner, gerr := o.deps.Calls.GetByRecordingRef(ctx, ref)
			if gerr != nil {
				return nil, fmt.Errorf("pipeline: reread call after duplicate ref: %w", gerr)
			}
			if winner.Status == calls.StatusCompleted {
				return &winner, nil
			}
			rec.ID = winner.ID
			rec.CreatedAt = winner.CreatedAt
			if err := o.update(ctx, rec); err != nil {
				return nil, err
			}
		}
	} else {
		if err := o.update(ctx, rec); err != nil {
			return nil, err
		}
	}

	_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo, "processing started")
	return rec, nil
}

func (o *Orchestrator) storeRecording(ctx context.Context, rec *calls.CallRecord, ref string, recording recordings.Recording) error {
	key := recordings.BlobKey(ref, recording.MimeType)
	stored, err := o.deps.Store.Put(ctx, key, bytes.NewReader(recording.Bytes), int64(len(recording.Bytes)), recording.MimeType)
	if err != nil {
		return fmt.Errorf("pipeline: store recording: %w", err)
	}
	// Persist the key immediately so partial progress survives a later
	// stage failure.
	rec.RecordingBlobKey = stored
	return o.update(ctx, rec)
}

// transcribeStage returns outcome=true when the run ended in a terminal
// business outcome (blank transcript) and nothing further should run.
func (o *Orchestrator) transcribeStage(ctx context.Context, rec *calls.CallRecord, recording recordings.Recording) (string, bool, error) {
	result, err := o.deps.Transcriber.Transcribe(ctx, recording.Bytes, recording.MimeType)
	if err != nil {
		return "", false, fmt.Errorf("pipeline: transcribe: %w", err)
	}

	rec.ProcessingMetadata["transcription.provider"] = result.Provider
	rec.ProcessingMetadata["transcription.model"] = result.Model
	if result.RefinedBy != "" {
		rec.ProcessingMetadata["transcription.refined_by"] = result.RefinedBy
	}

	if strings.TrimSpace(result.Text) == "" {
		rec.Status = calls.StatusTranscriptionFailed
		if err := o.update(ctx, rec); err != nil {
			return "", false, err
		}
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityError, "transcription returned no text")
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeveritySuccess, "job finished: transcription failed outcome recorded")
		logger.From(ctx).Info("transcription returned no text, call marked", "call_id", rec.ID)
		return "", true, nil
	}
	return result.Text, false, nil
}

// storeTranscript is a soft stage: the in-memory transcript still feeds
// the remaining stages when the upload fails.
func (o *Orchestrator) storeTranscript(ctx context.Context, rec *calls.CallRecord, ref, transcript string) {
	key := recordings.TranscriptKey(ref)
	stored, err := o.deps.Store.Put(ctx, key, strings.NewReader(transcript), int64(len(transcript)), "text/plain; charset=utf-8")
	if err != nil {
		logger.From(ctx).Warn("transcript upload failed, continuing without persisted transcript",
			"call_id", rec.ID, "error", err)
		o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityWarn, fmt.Sprintf("transcript upload failed: %v", err))
		return
	}
	rec.TranscriptBlobKey = stored
	if err := o.update(ctx, rec); err != nil {
		logger.From(ctx).Warn("recording transcript key failed", "call_id", rec.ID, "error", err)
	}
}

// attributeAgentByLLM is the fallback when no CDR extension matched.
// Agents are never created from LLM guesses, only matched.
func (o *Orchestrator) attributeAgentByLLM(ctx context.Context, rec *calls.CallRecord, transcript string) {
	if o.deps.Completer == nil {
		return
	}
	name, err := identifyAgentName(ctx, o.deps.Completer, transcript)
	if err != nil {
		logger.From(ctx).Warn("agent identification failed", "call_id", rec.ID, "error", err)
		o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityWarn, fmt.Sprintf("agent identification failed: %v", err))
		return
	}
	if name == "" {
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo, "no agent identifiable from transcript")
		return
	}
	agent, err := o.deps.Agents.FindByNameFold(ctx, name)
	if errors.Is(err, directory.ErrNotFound) {
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo,
			fmt.Sprintf("transcript names %q but no matching agent exists", name))
		return
	}
	if err != nil {
		logger.From(ctx).Warn("agent name lookup failed", "call_id", rec.ID, "error", err)
		return
	}
	rec.AgentID = agent.ID
	rec.ProcessingMetadata["agent.source"] = "llm"
	if err := o.update(ctx, rec); err != nil {
		logger.From(ctx).Warn("recording agent link failed", "call_id", rec.ID, "error", err)
	}
}

// embedStage chunks and embeds the transcript. Every failure in here is
// soft: a chunk that cannot be embedded is skipped, never fatal.
func (o *Orchestrator) embedStage(ctx context.Context, rec *calls.CallRecord, transcript string) {
	if !o.opts.EmbeddingsEnabled {
		rec.ProcessingMetadata["embeddings.provider"] = "skipped"
		_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo, "embeddings disabled, stage skipped")
		return
	}

	rec.ProcessingMetadata["embeddings.provider"] = "openai"
	rec.ProcessingMetadata["embeddings.model"] = o.deps.Embedder.ModelName()

	stored := 0
	chunks := o.chunker.Split(transcript)
	for _, chunk := range chunks {
		vector, err := o.deps.Embedder.Embed(ctx, chunk.Text)
		if err != nil {
			o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityWarn,
				fmt.Sprintf("embedding chunk %d failed: %v", chunk.Sequence, err))
			continue
		}
		if len(vector) == 0 {
			o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityWarn,
				fmt.Sprintf("embedding chunk %d returned empty vector, skipped", chunk.Sequence))
			continue
		}
		err = o.deps.Vectors.Create(ctx, &embeddings.ChunkEmbedding{
			CallID:    rec.ID,
			Sequence:  chunk.Sequence,
			ChunkText: chunk.Text,
			Vector:    vector,
			ModelName: o.deps.Embedder.ModelName(),
			CreatedAt: o.clock().UTC(),
		})
		if err != nil {
			o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityWarn,
				fmt.Sprintf("storing chunk %d embedding failed: %v", chunk.Sequence, err))
			continue
		}
		stored++
	}
	_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo,
		fmt.Sprintf("embedded %d of %d transcript chunks", stored, len(chunks)))
}

func (o *Orchestrator) resolveCompany(ctx context.Context, rec *calls.CallRecord, number string) (directory.Company, error) {
	resolved, err := o.deps.Lookup.ResolveByPhone(ctx, number)
	if err != nil {
		if errors.Is(err, directory.ErrPhoneRequired) {
			return directory.Company{}, err
		}
		return directory.Company{}, fmt.Errorf("pipeline: resolve company: %w", err)
	}
	company, err := o.deps.Companies.FindOrCreateByExternalID(ctx, resolved.ExternalID, resolved.Name)
	if err != nil {
		return directory.Company{}, fmt.Errorf("pipeline: find or create company: %w", err)
	}
	rec.CompanyID = company.ID
	if err := o.update(ctx, rec); err != nil {
		return directory.Company{}, err
	}
	return company, nil
}

func (o *Orchestrator) analyzeStage(ctx context.Context, rec *calls.CallRecord, company directory.Company, number, transcript string) error {
	result, err := o.deps.Analyzer.Analyze(ctx, analysis.Input{
		CallID:      rec.ID,
		CompanyName: company.Name,
		PhoneNumber: number,
		Transcript:  transcript,
	})
	if err != nil {
		return fmt.Errorf("pipeline: analyze: %w", err)
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.CreatedAt = o.clock().UTC()
	if err := o.deps.Results.Create(ctx, result); err != nil {
		return fmt.Errorf("pipeline: store analysis: %w", err)
	}
	rec.AnalysisID = result.ID
	rec.ProcessingMetadata["analysis.model"] = result.ModelID
	return nil
}

func (o *Orchestrator) finishInternalCall(ctx context.Context, rec *calls.CallRecord, reason string) error {
	rec.Status = calls.StatusInternalCallSkipped
	if err := o.update(ctx, rec); err != nil {
		return o.fail(ctx, rec, err)
	}
	_ = o.deps.Logs.Append(ctx, rec.ID, proclog.SeverityInfo, reason)
	logger.From(ctx).Info("internal call skipped", "call_id", rec.ID)
	return nil
}

func (o *Orchestrator) update(ctx context.Context, rec *calls.CallRecord) error {
	rec.UpdatedAt = o.clock().UTC()
	if err := o.deps.Calls.Update(ctx, rec); err != nil {
		return fmt.Errorf("pipeline: update call record: %w", err)
	}
	return nil
}

// fail marks the call FAILED and logs, both best-effort: their own
// failure is recorded but never masks the original error.
func (o *Orchestrator) fail(ctx context.Context, rec *calls.CallRecord, orig error) error {
	if rec != nil && rec.ID != "" {
		rec.Status = calls.StatusFailed
		rec.UpdatedAt = o.clock().UTC()
		if err := o.deps.Calls.Update(ctx, rec); err != nil {
			logger.From(ctx).Error("marking call failed did not persist", "call_id", rec.ID, "error", err)
		}
		o.deps.Logs.BestEffort(ctx, rec.ID, proclog.SeverityError, orig.Error())
	}
	return orig
}
