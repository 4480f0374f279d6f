package directory

import "time"

// Agent is a service-desk staff member attributed to calls.
//
// Agents are created implicitly the first time a new CDR extension is
// confirmed; the pipeline never deletes them. LLM-identified names are
// matched against existing agents only, never auto-created.

type Agent struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`

	// Extension is the internal phone extension (unique when set).
	Extension string `json:"extension,omitempty" db:"extension"`

	// UserID optionally links the agent to a human identity record.
	UserID string `json:"user_id,omitempty" db:"user_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Company is a client organisation resolved from the external directory.
// Find-or-create is keyed on ExternalID (the directory's identifier).

type Company struct {
	ID         string `json:"id" db:"id"`
	ExternalID string `json:"external_id" db:"external_id"`
	Name       string `json:"name" db:"name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
