package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAgentRepo is an in-memory agent repository for tests.

type MemoryAgentRepo struct {
	mu     sync.Mutex
	agents map[string]Agent // id -> agent
}

func NewMemoryAgentRepo() *MemoryAgentRepo {
	return &MemoryAgentRepo{agents: map[string]Agent{}}
}

// Seed inserts an agent directly, for test fixtures.
func (r *MemoryAgentRepo) Seed(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.agents[a.ID] = a
}

func (r *MemoryAgentRepo) FindOrCreateByExtension(ctx context.Context, extension, displayName string) (Agent, error) {
	if extension == "" {
		return Agent{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		if a.Extension == extension {
			return a, nil
		}
	}
	a := Agent{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Extension:   extension,
		CreatedAt:   time.Now().UTC(),
	}
	if a.DisplayName == "" {
		a.DisplayName = "Extension " + extension
	}
	r.agents[a.ID] = a
	return a, nil
}

func (r *MemoryAgentRepo) FindByNameFold(ctx context.Context, name string) (Agent, error) {
	if name == "" {
		return Agent{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		if strings.EqualFold(a.DisplayName, name) {
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}

func (r *MemoryAgentRepo) GetByID(ctx context.Context, id string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryAgentRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// MemoryCompanyRepo is an in-memory company repository for tests.

type MemoryCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]Company // external_id -> company
}

func NewMemoryCompanyRepo() *MemoryCompanyRepo {
	return &MemoryCompanyRepo{companies: map[string]Company{}}
}

func (r *MemoryCompanyRepo) FindOrCreateByExternalID(ctx context.Context, externalID, name string) (Company, error) {
	if externalID == "" {
		return Company{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.companies[externalID]; ok {
		return c, nil
	}
	c := Company{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	r.companies[externalID] = c
	return c, nil
}

func (r *MemoryCompanyRepo) GetByID(ctx context.Context, id string) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return Company{}, ErrNotFound
}

func (r *MemoryCompanyRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.companies)
}
