// Package sqlite stores score records in a local SQLite file for
// single-device deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.

	"quiz-session-engine/internal/domain"
)

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ResultStore wraps SQLite access for attempt results.
type ResultStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*ResultStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	store := &ResultStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempt_results (
			attempt_id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			score_percent INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			is_passing INTEGER NOT NULL,
			reason TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempt_results_user ON attempt_results(user_id, completed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveResult inserts a result; a second result for the same attempt is ignored.
func (s *ResultStore) SaveResult(ctx context.Context, r domain.AttemptResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO attempt_results
		 (attempt_id, quiz_id, user_id, score_percent, correct_count, total_questions, is_passing, reason, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.AttemptID,
		r.QuizID,
		r.UserID,
		r.Score.ScorePercent,
		r.Score.CorrectCount,
		r.Score.TotalQuestions,
		r.Score.IsPassing,
		string(r.Reason),
		r.StartedAt.UTC().Format(timeLayout),
		r.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert attempt result: %w", err)
	}
	return nil
}

// ResultsForUser lists a user's results, oldest first.
func (s *ResultStore) ResultsForUser(ctx context.Context, userID string) ([]domain.AttemptResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attempt_id, quiz_id, user_id, score_percent, correct_count, total_questions, is_passing, reason, started_at, completed_at
		 FROM attempt_results WHERE user_id = ? ORDER BY completed_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.AttemptResult
	for rows.Next() {
		var (
			r                  domain.AttemptResult
			reason             string
			started, completed string
		)
		if err := rows.Scan(
			&r.AttemptID,
			&r.QuizID,
			&r.UserID,
			&r.Score.ScorePercent,
			&r.Score.CorrectCount,
			&r.Score.TotalQuestions,
			&r.Score.IsPassing,
			&reason,
			&started,
			&completed,
		); err != nil {
			return nil, err
		}
		r.Reason = domain.CompletionReason(reason)
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if r.CompletedAt, err = time.Parse(timeLayout, completed); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
