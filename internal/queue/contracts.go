package queue

import "context"

// CallJob is the queue message that triggers one pipeline run. It is
// transient: nothing beyond the queue persists it.
type CallJob struct {
	RecordingRef string            `json:"recordingRef"`
	LocatorHints map[string]string `json:"locatorHints,omitempty"`
}

// Handler processes one delivered job. A nil return acknowledges the
// job; an error leaves it for redelivery (at-least-once).
type Handler func(ctx context.Context, job CallJob) error

// Producer enqueues jobs.
type Producer interface {
	Enqueue(ctx context.Context, job CallJob) error
}

// Consumer delivers jobs to a handler until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handle Handler) error
}
