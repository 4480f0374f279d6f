package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory call repository for tests and local development.
// It enforces the recording_ref uniqueness constraint like the real store.

type MemoryRepo struct {
	mu      sync.Mutex
	byID    map[string]CallRecord
	byRef   map[string]string // recording_ref -> id
	Updates int               // write counter, used by idempotency tests
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  map[string]CallRecord{},
		byRef: map[string]string{},
	}
}

func (r *MemoryRepo) Create(ctx context.Context, rec *CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byRef[rec.RecordingRef]; ok {
		return ErrDuplicateRef
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.byID[rec.ID] = cloneRecord(*rec)
	r.byRef[rec.RecordingRef] = rec.ID
	r.Updates++
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, rec *CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rec.ID]; !ok {
		return ErrNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	r.byID[rec.ID] = cloneRecord(*rec)
	r.Updates++
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *MemoryRepo) GetByRecordingRef(ctx context.Context, ref string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[ref]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return cloneRecord(r.byID[id]), nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	matched := make([]CallRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneRecord(rec))
	}
	// Newest first, ID as the tiebreaker so pagination is stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []CallRecord{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func cloneRecord(rec CallRecord) CallRecord {
	out := rec
	if rec.ProcessingMetadata != nil {
		out.ProcessingMetadata = make(map[string]string, len(rec.ProcessingMetadata))
		for k, v := range rec.ProcessingMetadata {
			out.ProcessingMetadata[k] = v
		}
	}
	return out
}
