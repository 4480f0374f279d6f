package analysis

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	byCall map[string]*Result
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byCall: make(map[string]*Result)}
}

func (m *MemoryRepo) Create(_ context.Context, r *Result) error {
	if r == nil || r.CallID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.byCall[r.CallID] = &cp
	return nil
}

func (m *MemoryRepo) GetByCall(_ context.Context, callID string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byCall[callID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryRepo) DeleteByCall(_ context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byCall, callID)
	return nil
}
