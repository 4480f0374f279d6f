package proclog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AppendValidates(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	if err := svc.Append(context.Background(), "", SeverityInfo, "x"); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry for missing call id, got %v", err)
	}
	if err := svc.Append(context.Background(), "c1", "DEBUG", "x"); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry for bad severity, got %v", err)
	}

	if err := svc.Append(context.Background(), "c1", SeverityInfo, "started"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got := repo.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("expected stamped id and timestamp: %+v", got[0])
	}
}

func TestService_BestEffortSwallowsRepoError(t *testing.T) {
	repo := NewMemoryRepo()
	repo.FailAppend = errors.New("db down")
	svc := NewService(repo)

	// Must not panic or propagate.
	svc.BestEffort(context.Background(), "c1", SeverityError, "stage failed")
	if len(repo.Entries()) != 0 {
		t.Fatalf("expected no entries written")
	}
}

func TestService_ListByCall(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	_ = svc.Append(context.Background(), "c1", SeverityInfo, "a")
	_ = svc.Append(context.Background(), "c2", SeverityInfo, "b")
	_ = svc.Append(context.Background(), "c1", SeveritySuccess, "c")

	got, err := svc.ListByCall(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for c1, got %d", len(got))
	}
}
