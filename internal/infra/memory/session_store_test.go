package memory

import (
	"context"
	"errors"
	"testing"

	"nihss-scoring-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session, err := store.Create(ctx, "a-1")
	if err != nil || session == nil {
		t.Fatalf("expected session, err=%v", err)
	}
	again, _ := store.Create(ctx, "a-1")
	if again != session {
		t.Fatalf("expected create to return the existing session")
	}
	if _, err := store.Get(ctx, "a-1"); err != nil {
		t.Fatalf("expected session present, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete(ctx, "a-1")
	if _, err := store.Get(ctx, "a-1"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}
