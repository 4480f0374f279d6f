package directory

import (
	"context"
	"sync"
	"testing"
)

func TestAgentRepo_FindOrCreateByExtension(t *testing.T) {
	repo := NewMemoryAgentRepo()
	ctx := context.Background()

	a, err := repo.FindOrCreateByExtension(ctx, "2041", "Dana Reed")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := repo.FindOrCreateByExtension(ctx, "2041", "Someone Else")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected same agent for same extension, got %s and %s", a.ID, b.ID)
	}
	if b.DisplayName != "Dana Reed" {
		t.Fatalf("existing agent must not be renamed, got %q", b.DisplayName)
	}
}

func TestAgentRepo_FindOrCreateConcurrent(t *testing.T) {
	repo := NewMemoryAgentRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := repo.FindOrCreateByExtension(ctx, "3001", "")
			if err != nil {
				t.Errorf("unexpected err: %v", err)
				return
			}
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent find-or-create produced distinct agents")
		}
	}
}

func TestAgentRepo_FindByNameFold(t *testing.T) {
	repo := NewMemoryAgentRepo()
	repo.Seed(Agent{ID: "a1", DisplayName: "Dana Reed"})

	got, err := repo.FindByNameFold(context.Background(), "dana reed")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != "a1" {
		t.Fatalf("expected a1, got %s", got.ID)
	}

	if _, err := repo.FindByNameFold(context.Background(), "nobody"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompanyRepo_FindOrCreateByExternalID(t *testing.T) {
	repo := NewMemoryCompanyRepo()
	ctx := context.Background()

	a, err := repo.FindOrCreateByExternalID(ctx, "crm-77", "Northwind Ltd")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := repo.FindOrCreateByExternalID(ctx, "crm-77", "Northwind Limited")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected same company for same external id")
	}
	if repo.Count() != 1 {
		t.Fatalf("expected exactly one company, got %d", repo.Count())
	}
}
