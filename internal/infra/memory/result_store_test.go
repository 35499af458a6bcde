package memory

import (
	"context"
	"testing"
	"time"

	"quiz-session-engine/internal/domain"
)

func TestResultStoreOrdersByCompletion(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = store.SaveResult(ctx, domain.AttemptResult{AttemptID: "b", UserID: "u1", CompletedAt: base.Add(time.Hour)})
	_ = store.SaveResult(ctx, domain.AttemptResult{AttemptID: "a", UserID: "u1", CompletedAt: base})
	_ = store.SaveResult(ctx, domain.AttemptResult{AttemptID: "c", UserID: "u2", CompletedAt: base})

	results, err := store.ResultsForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].AttemptID != "a" || results[1].AttemptID != "b" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestResultStoreKeepsFirstResult(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	_ = store.SaveResult(ctx, domain.AttemptResult{AttemptID: "a", UserID: "u1", Score: domain.ScoreRecord{ScorePercent: 80}})
	_ = store.SaveResult(ctx, domain.AttemptResult{AttemptID: "a", UserID: "u1", Score: domain.ScoreRecord{ScorePercent: 10}})

	results, _ := store.ResultsForUser(ctx, "u1")
	if len(results) != 1 || results[0].Score.ScorePercent != 80 {
		t.Fatalf("expected first result kept, got %+v", results)
	}
}
