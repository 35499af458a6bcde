package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_attempt_results.sql
var createAttemptResultsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createAttemptResultsSQL); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx,
				`CREATE INDEX IF NOT EXISTS attempt_results_user_idx ON attempt_results (user_id, completed_at)`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS attempt_results`)
			return err
		},
	)
}
