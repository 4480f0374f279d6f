package calls

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("calls: record not found")
var ErrDuplicateRef = errors.New("calls: recording_ref already exists")

// Repository is the persistence contract for the CallRecord aggregate.
//
// Implementations must enforce uniqueness of recording_ref on Create;
// concurrent workers racing on the same ref rely on it.
type Repository interface {
	Create(ctx context.Context, rec *CallRecord) error
	Update(ctx context.Context, rec *CallRecord) error
	GetByID(ctx context.Context, id string) (CallRecord, error)
	GetByRecordingRef(ctx context.Context, ref string) (CallRecord, error)
	List(ctx context.Context, filter ListFilter) ([]CallRecord, error)
}

// ListFilter narrows the read-model listing consumed by dashboards.
type ListFilter struct {
	Status CallStatus
	Limit  int
	Offset int
}
