package proclog

import (
	"context"
	"errors"
	"time"

	"call-insights/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for processing log entries.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByCall(ctx context.Context, callID string) ([]Entry, error)
}

var ErrInvalidEntry = errors.New("proclog: invalid entry")

// Service writes the pipeline's audit trail.
//
// IMPORTANT:
// - Callers on failure paths should use BestEffort so a log write
//   failure never masks the error being handled.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, callID string, sev Severity, message string) error {
	if s.repo == nil {
		return errors.New("proclog: repository not configured")
	}
	if callID == "" || message == "" {
		return ErrInvalidEntry
	}
	if !sev.Valid() {
		return ErrInvalidEntry
	}
	return s.repo.Append(ctx, Entry{
		ID:        uuid.NewString(),
		CallID:    callID,
		Severity:  sev,
		Message:   message,
		CreatedAt: s.clock().UTC(),
	})
}

// BestEffort appends and swallows any repository error, recording it on
// the context logger instead. The primary result always takes precedence.
func (s *Service) BestEffort(ctx context.Context, callID string, sev Severity, message string) {
	if err := s.Append(ctx, callID, sev, message); err != nil {
		logger.From(ctx).Warn("processing log write failed",
			"call_id", callID,
			"severity", string(sev),
			"err", err,
		)
	}
}

func (s *Service) ListByCall(ctx context.Context, callID string) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("proclog: repository not configured")
	}
	if callID == "" {
		return nil, ErrInvalidEntry
	}
	return s.repo.ListByCall(ctx, callID)
}
