package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/domain"
	pgstore "quiz-session-engine/internal/infra/postgres"
	"quiz-session-engine/internal/logging"
)

// NewSeedCmd writes the bundled sample quizzes into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample quizzes into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return seedQuizzes(cmd.Context(), pgstore.NewQuizLoader(pool), sampleQuizzes(), logger)
		},
	}
}

func seedQuizzes(ctx context.Context, loader *pgstore.QuizLoader, quizzes map[string]domain.Quiz, logger *zap.Logger) error {
	for id, quiz := range quizzes {
		if err := loader.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("seed %s: %w", id, err)
		}
		logger.Info("quiz seeded", zap.String("quiz_id", id), zap.Int("questions", len(quiz.Questions)))
	}
	return nil
}
