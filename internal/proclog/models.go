package proclog

import "time"

// Entry is an immutable, append-only processing log record.
//
// Invariants:
// - Entries are never updated or deleted; one row per notable pipeline event.
// - call_id links the entry to its CallRecord.
// - Writes on failure paths are best-effort; never block the pipeline on them.
//
// Storage recommendation (Postgres):
// - Table processing_log with an INSERT-only policy.
// - Optional: partition by time for retention.

type Entry struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	Severity Severity `json:"severity" db:"severity"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarn    Severity = "WARN"
	SeverityError   Severity = "ERROR"
	SeveritySuccess Severity = "SUCCESS"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityError, SeveritySuccess:
		return true
	default:
		return false
	}
}
