package calls

import "time"

// CallRecord is the aggregate produced by the ingestion pipeline.
//
// Invariants:
// - RecordingRef is the unique natural key; a UNIQUE constraint on it is
//   the backstop against insert races between workers.
// - Status transitions are monotonic within a run. Only an explicit
//   reprocess moves a terminal record back to PENDING.
// - The pipeline orchestrator is the only writer; dashboards read only.

type CallRecord struct {
	ID           string `json:"id" db:"id"`
	RecordingRef string `json:"recording_ref" db:"recording_ref"`

	Status CallStatus `json:"status" db:"status"`

	StartTime       time.Time `json:"start_time" db:"start_time"`
	EndTime         time.Time `json:"end_time" db:"end_time"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`

	RecordingBlobKey  string `json:"recording_blob_key,omitempty" db:"recording_blob_key"`
	TranscriptBlobKey string `json:"transcript_blob_key,omitempty" db:"transcript_blob_key"`

	AgentID    string `json:"agent_id,omitempty" db:"agent_id"`
	CompanyID  string `json:"company_id,omitempty" db:"company_id"`
	AnalysisID string `json:"analysis_id,omitempty" db:"analysis_id"`

	// ProcessingMetadata records which provider/model served each stage
	// (e.g. "transcription.provider" -> "whisper"). Stored as JSON.
	ProcessingMetadata map[string]string `json:"processing_metadata,omitempty" db:"processing_metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	StatusPending             CallStatus = "PENDING"
	StatusProcessing          CallStatus = "PROCESSING"
	StatusCompleted           CallStatus = "COMPLETED"
	StatusFailed              CallStatus = "FAILED"
	StatusTranscriptionFailed CallStatus = "TRANSCRIPTION_FAILED"
	StatusInternalCallSkipped CallStatus = "INTERNAL_CALL_SKIPPED"
)

// IsTerminal reports whether the pipeline will not continue from this
// status without an explicit reprocess.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTranscriptionFailed, StatusInternalCallSkipped:
		return true
	default:
		return false
	}
}

func (s CallStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed,
		StatusTranscriptionFailed, StatusInternalCallSkipped:
		return true
	default:
		return false
	}
}
