package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-session-engine/internal/domain"
)

// ResultStore keeps score records in the attempt_results table.
type ResultStore struct {
	db *bun.DB
}

type attemptResultRow struct {
	bun.BaseModel `bun:"table:attempt_results"`

	AttemptID      string    `bun:"attempt_id,pk"`
	QuizID         string    `bun:"quiz_id,notnull"`
	UserID         string    `bun:"user_id,notnull"`
	ScorePercent   int       `bun:"score_percent,notnull"`
	CorrectCount   int       `bun:"correct_count,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	IsPassing      bool      `bun:"is_passing,notnull"`
	Reason         string    `bun:"reason,notnull"`
	StartedAt      time.Time `bun:"started_at,notnull"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// SaveResult inserts a result. A result already stored for the attempt is kept.
func (s *ResultStore) SaveResult(ctx context.Context, result domain.AttemptResult) error {
	row := toRow(result)
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (attempt_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert attempt result: %w", err)
	}
	return nil
}

// ResultsForUser lists a user's results, oldest first.
func (s *ResultStore) ResultsForUser(ctx context.Context, userID string) ([]domain.AttemptResult, error) {
	var rows []attemptResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("completed_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select attempt results: %w", err)
	}
	results := make([]domain.AttemptResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func toRow(r domain.AttemptResult) attemptResultRow {
	return attemptResultRow{
		AttemptID:      r.AttemptID,
		QuizID:         r.QuizID,
		UserID:         r.UserID,
		ScorePercent:   r.Score.ScorePercent,
		CorrectCount:   r.Score.CorrectCount,
		TotalQuestions: r.Score.TotalQuestions,
		IsPassing:      r.Score.IsPassing,
		Reason:         string(r.Reason),
		StartedAt:      r.StartedAt.UTC(),
		CompletedAt:    r.CompletedAt.UTC(),
	}
}

func (row attemptResultRow) toDomain() domain.AttemptResult {
	return domain.AttemptResult{
		AttemptID: row.AttemptID,
		QuizID:    row.QuizID,
		UserID:    row.UserID,
		Score: domain.ScoreRecord{
			ScorePercent:   row.ScorePercent,
			CorrectCount:   row.CorrectCount,
			TotalQuestions: row.TotalQuestions,
			IsPassing:      row.IsPassing,
		},
		Reason:      domain.CompletionReason(row.Reason),
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}
}
