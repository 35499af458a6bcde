package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
	pgstore "quiz-session-engine/internal/infra/postgres"
	redisstore "quiz-session-engine/internal/infra/redis"
	"quiz-session-engine/internal/infra/sqlite"
	"quiz-session-engine/internal/logging"
	transport "quiz-session-engine/internal/transport/http"
)

// resultStore is satisfied by every score sink.
type resultStore interface {
	app.ResultRepository
	transport.ResultLister
}

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var db *bun.DB
	if cfg.Postgres.URL != "" {
		db, err = openBunDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL, logger)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisstore.NewAttemptStore(redisClient, redisTTL, logger)
	} else {
		attempts = memory.NewAttemptStore()
	}

	results, closeResults, err := openResultStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeResults()

	opts := []app.ServiceOption{
		app.WithTickInterval(config.TTLDuration(cfg.Engine.TickInterval, time.Second)),
	}
	if cfg.Engine.DefaultPassingScore != nil {
		opts = append(opts, app.WithDefaultPassingScore(*cfg.Engine.DefaultPassingScore))
	}
	service := app.NewQuizService(attempts, quizRepo, results, logger, opts...)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/results", transport.NewResultsHandler(results, logger))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive it.
	}

	go func() {
		logger.Info("starting quiz engine", zap.String("port", finalPort), zap.String("results", cfg.ResultsDriver()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openResultStore(cfg config.Config, db *bun.DB) (resultStore, func(), error) {
	switch driver := cfg.ResultsDriver(); driver {
	case "memory":
		return memory.NewResultStore(), func() {}, nil
	case "postgres":
		if db == nil {
			return nil, nil, fmt.Errorf("results driver postgres needs postgres.url")
		}
		return pgstore.NewResultStore(db), func() {}, nil
	case "sqlite":
		path := cfg.Results.SQLitePath
		if path == "" {
			path = "data/results.db"
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown results driver %q", driver)
	}
}

// sampleQuizzes is served when no Postgres quiz bank is configured.
func sampleQuizzes() map[string]domain.Quiz {
	limit, passing := 10, 60
	zero, one, two := 0, 1, 2
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Cloud fundamentals",
			Config: domain.QuizConfig{
				TimeLimitMinutes:       &limit,
				PassingScorePercent:    &passing,
				RandomizeQuestions:     true,
				RandomizeAnswerOptions: true,
				FeedbackMode:           domain.FeedbackInstant,
			},
			Questions: []domain.Question{
				{
					ID:              "q1",
					Type:            domain.SingleChoice,
					Prompt:          "Which service offers object storage?",
					Options:         []domain.Option{{ID: 0, Text: "EBS"}, {ID: 1, Text: "S3"}, {ID: 2, Text: "EFS"}},
					CorrectOptionID: &one,
					Explanation:     "S3 stores objects; EBS and EFS are block and file storage.",
				},
				{
					ID:              "q2",
					Type:            domain.TrueFalse,
					Prompt:          "New S3 buckets block public access by default.",
					Options:         []domain.Option{{ID: 0, Text: "True"}, {ID: 1, Text: "False"}},
					CorrectOptionID: &zero,
				},
				{
					ID:               "q3",
					Type:             domain.MultiChoice,
					Prompt:           "Which of these are managed databases?",
					Options:          []domain.Option{{ID: 0, Text: "RDS"}, {ID: 1, Text: "DynamoDB"}, {ID: 2, Text: "Lambda"}},
					CorrectOptionIDs: []int{0, 1},
				},
				{
					ID:              "q4",
					Type:            domain.FillInBlank,
					Prompt:          "The CLI tool for AWS is called ____.",
					AcceptedAnswers: []string{"aws", "aws cli"},
				},
				{
					ID:     "q5",
					Type:   domain.Matching,
					Prompt: "Match each service to its category.",
					MatchingPairs: map[string]string{
						"Lambda": "compute",
						"S3":     "storage",
						"VPC":    "networking",
					},
				},
				{
					ID:               "q6",
					Type:             domain.Ordering,
					Prompt:           "Order the steps of a deployment.",
					OrderingSequence: []string{"build", "test", "deploy"},
				},
				{
					ID:              "q7",
					Type:            domain.SingleChoice,
					Prompt:          "How many availability zones does a region have at minimum?",
					Options:         []domain.Option{{ID: 0, Text: "1"}, {ID: 1, Text: "2"}, {ID: 2, Text: "3"}},
					CorrectOptionID: &two,
				},
			},
		},
	}
}
