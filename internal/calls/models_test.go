package calls

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestCallStatus_Terminal(t *testing.T) {
	terminal := []CallStatus{StatusCompleted, StatusFailed, StatusTranscriptionFailed, StatusInternalCallSkipped}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	if StatusPending.IsTerminal() || StatusProcessing.IsTerminal() {
		t.Fatalf("active statuses must not be terminal")
	}
}

func TestMemoryRepo_UniqueRecordingRef(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	a := &CallRecord{ID: uuid.NewString(), RecordingRef: "rec-1", Status: StatusPending}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	b := &CallRecord{ID: uuid.NewString(), RecordingRef: "rec-1", Status: StatusPending}
	if err := repo.Create(ctx, b); err != ErrDuplicateRef {
		t.Fatalf("expected ErrDuplicateRef, got %v", err)
	}

	got, err := repo.GetByRecordingRef(ctx, "rec-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("expected first record to win, got %s", got.ID)
	}
}

func TestMemoryRepo_UpdateRequiresExisting(t *testing.T) {
	repo := NewMemoryRepo()
	rec := &CallRecord{ID: uuid.NewString(), RecordingRef: "rec-2", Status: StatusPending}
	if err := repo.Update(context.Background(), rec); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
