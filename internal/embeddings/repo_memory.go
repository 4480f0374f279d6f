package embeddings

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows []ChunkEmbedding

	// FailCreate, when set, is returned by every Create call.
	FailCreate error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Create(_ context.Context, e *ChunkEmbedding) error {
	if e == nil || e.CallID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return m.FailCreate
	}
	cp := *e
	cp.Vector = append([]float32(nil), e.Vector...)
	m.rows = append(m.rows, cp)
	return nil
}

func (m *MemoryRepo) ListByCall(_ context.Context, callID string) ([]ChunkEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ChunkEmbedding
	for _, r := range m.rows {
		if r.CallID == callID {
			cp := r
			cp.Vector = append([]float32(nil), r.Vector...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *MemoryRepo) DeleteByCall(_ context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.CallID != callID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

// Count reports the number of stored rows across all calls.
func (m *MemoryRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
