package postgres

import (
	"testing"
	"time"

	"quiz-session-engine/internal/domain"
)

func TestResultRowRoundTrip(t *testing.T) {
	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	result := domain.AttemptResult{
		AttemptID: "a-1",
		QuizID:    "quiz-1",
		UserID:    "u1",
		Score: domain.ScoreRecord{
			ScorePercent:   67,
			CorrectCount:   2,
			TotalQuestions: 3,
			IsPassing:      false,
		},
		Reason:      domain.CompletedByTimer,
		StartedAt:   started,
		CompletedAt: started.Add(10 * time.Minute),
	}

	row := toRow(result)
	if row.StartedAt.Location() != time.UTC {
		t.Fatalf("expected timestamps stored in UTC")
	}
	if row.Reason != "expired" {
		t.Fatalf("unexpected reason column %q", row.Reason)
	}

	back := row.toDomain()
	if back.Score != result.Score || back.Reason != result.Reason {
		t.Fatalf("score lost: %+v", back)
	}
	if !back.StartedAt.Equal(result.StartedAt) || !back.CompletedAt.Equal(result.CompletedAt) {
		t.Fatalf("timestamps differ: %s %s", back.StartedAt, back.CompletedAt)
	}
}
