package analysis

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("analysis: result not found")
	ErrInvalidArgument = errors.New("analysis: invalid argument")
)

// Repository stores analysis results. DeleteByCall is a hard replace
// primitive: no history of prior results is retained.
type Repository interface {
	Create(ctx context.Context, r *Result) error
	GetByCall(ctx context.Context, callID string) (*Result, error)
	DeleteByCall(ctx context.Context, callID string) error
}
