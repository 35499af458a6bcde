package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// AttemptRepository abstracts where live attempts are kept (in-memory, Redis, etc).
type AttemptRepository interface {
	Save(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultRepository receives the score of every finished attempt.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.AttemptResult) error
}

// ServiceOption tweaks a QuizService.
type ServiceOption func(*QuizService)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

// WithTickInterval changes how often attempt timers tick.
func WithTickInterval(d time.Duration) ServiceOption {
	return func(s *QuizService) { s.tickInterval = d }
}

// WithSeed makes question randomization reproducible.
func WithSeed(seed int64) ServiceOption {
	return func(s *QuizService) {
		s.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	}
}

// WithDefaultPassingScore sets the threshold used by quizzes that carry none.
func WithDefaultPassingScore(percent int) ServiceOption {
	return func(s *QuizService) { s.defaultPassing = &percent }
}

// QuizService contains the quiz attempt use cases.
type QuizService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	results  ResultRepository
	validate *validator.Validate
	logger   *zap.Logger

	now          func() time.Time
	tickInterval time.Duration
	newRand      func() *rand.Rand
	// nil keeps domain.DefaultPassingScorePercent
	defaultPassing *int
}

func NewQuizService(attempts AttemptRepository, quizzes QuizRepository, results ResultRepository, logger *zap.Logger, opts ...ServiceOption) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &QuizService{
		attempts:     attempts,
		quizzes:      quizzes,
		results:      results,
		validate:     validator.New(),
		logger:       logger,
		now:          time.Now,
		tickInterval: time.Second,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new attempt at quizID for userID. The question set is
// randomized here, once, and the countdown starts immediately.
func (s *QuizService) Start(ctx context.Context, quizID, userID string) (Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.validate.Struct(quiz); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidQuiz, quizID, err)
	}
	if quiz.Config.PassingScorePercent == nil && s.defaultPassing != nil {
		passing := *s.defaultPassing
		quiz.Config.PassingScorePercent = &passing
	}

	session := engine.NewSession(quiz.Config, quiz.Questions, engine.WithRand(s.newRand()))
	attempt := newAttempt(uuid.NewString(), quiz, userID, s.now(), session)
	attempt.timer = engine.NewTimer(quiz.Config.TimeLimitMinutes, session,
		engine.WithTickInterval(s.tickInterval),
		engine.OnTick(func(remaining int) {
			attempt.broadcast(Event{Type: EventTick, Payload: TickPayload{RemainingSeconds: remaining}})
		}),
		engine.OnExpire(func(record domain.ScoreRecord) {
			s.finish(attempt, record, domain.CompletedByTimer)
		}),
	)
	s.attempts.Save(attempt)

	s.logger.Info("attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", quizID),
		zap.String("user_id", userID),
		zap.Int("questions", len(session.Questions())),
	)

	// The countdown belongs to the attempt, not to the request that started it.
	attempt.timer.Start(context.Background())
	return attempt.snapshot(), nil
}

// SelectAnswer records an answer for the attempt's current question.
func (s *QuizService) SelectAnswer(_ context.Context, attemptID, questionID string, answer domain.Answer) (*engine.Feedback, error) {
	attempt, err := s.openAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	feedback, ok := attempt.session.SelectAnswer(questionID, answer)
	if !ok {
		return nil, s.rejection(attempt, domain.ErrQuestionNotFound)
	}
	if feedback != nil {
		attempt.broadcast(Event{Type: EventFeedback, Payload: *feedback})
	}
	return feedback, nil
}

// ToggleFlag marks or unmarks a question for review.
func (s *QuizService) ToggleFlag(_ context.Context, attemptID, questionID string) (bool, error) {
	attempt, err := s.openAttempt(attemptID)
	if err != nil {
		return false, err
	}
	flagged, ok := attempt.session.ToggleFlag(questionID)
	if !ok {
		return false, s.rejection(attempt, domain.ErrQuestionNotFound)
	}
	attempt.broadcast(Event{Type: EventState, Payload: attempt.snapshot()})
	return flagged, nil
}

// Next advances the attempt. At the end of a linear pass with flags
// outstanding it returns engine.NextPendingDecision and emits a
// pendingDecision event; the caller then picks StartFlaggedReview or
// SubmitWithoutReview.
func (s *QuizService) Next(_ context.Context, attemptID string) (engine.NextResult, Snapshot, error) {
	attempt, err := s.openAttempt(attemptID)
	if err != nil {
		return engine.NextIgnored, Snapshot{}, err
	}
	result := attempt.session.Next()
	switch result {
	case engine.NextPendingDecision:
		snap := attempt.snapshot()
		attempt.broadcast(Event{Type: EventPendingDecision, Payload: snap})
		return result, snap, nil
	case engine.NextCompleted:
		if record, ok := attempt.session.Result(); ok {
			s.finish(attempt, record, domain.CompletedByParticipant)
		}
	case engine.NextAdvanced:
		attempt.broadcast(Event{Type: EventState, Payload: attempt.snapshot()})
	}
	return result, attempt.snapshot(), nil
}

// Previous moves the attempt back one question.
func (s *QuizService) Previous(_ context.Context, attemptID string) (Snapshot, error) {
	return s.navigate(attemptID, func(session *engine.Session) bool { return session.Previous() })
}

// Jump moves the attempt to a question by id.
func (s *QuizService) Jump(_ context.Context, attemptID, questionID string) (Snapshot, error) {
	attempt, err := s.openAttempt(attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	if !attempt.session.Jump(questionID) {
		return Snapshot{}, s.rejection(attempt, domain.ErrQuestionNotFound)
	}
	snap := attempt.snapshot()
	attempt.broadcast(Event{Type: EventState, Payload: snap})
	return snap, nil
}

// StartFlaggedReview switches the attempt into flagged review.
func (s *QuizService) StartFlaggedReview(_ context.Context, attemptID string) (Snapshot, error) {
	return s.navigate(attemptID, func(session *engine.Session) bool { return session.StartFlaggedReview() })
}

// SubmitWithoutReview finishes the attempt immediately.
func (s *QuizService) SubmitWithoutReview(_ context.Context, attemptID string) (domain.AttemptResult, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.AttemptResult{}, domain.ErrAttemptNotFound
	}
	record, first := attempt.session.SubmitWithoutReview()
	if first {
		s.finish(attempt, record, domain.CompletedByParticipant)
	}
	if result, ok := attempt.attemptResult(); ok {
		return result, nil
	}
	if attempt.Completed() {
		// Completed by the timer; its result is still being recorded.
		return domain.AttemptResult{}, domain.ErrAttemptCompleted
	}
	return domain.AttemptResult{}, domain.ErrReviewInProgress
}

// Snapshot returns the current participant view of an attempt.
func (s *QuizService) Snapshot(_ context.Context, attemptID string) (Snapshot, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return Snapshot{}, domain.ErrAttemptNotFound
	}
	return attempt.snapshot(), nil
}

// Result returns the stored result of a finished attempt.
func (s *QuizService) Result(_ context.Context, attemptID string) (domain.AttemptResult, bool, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.AttemptResult{}, false, domain.ErrAttemptNotFound
	}
	result, done := attempt.attemptResult()
	return result, done, nil
}

// Subscribe returns a channel that receives updates for an attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan Event, func(), error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.subscribe()
	return ch, cancel, nil
}

// Abandon stops an attempt's timer and forgets it. Unfinished attempts are
// not scored.
func (s *QuizService) Abandon(_ context.Context, attemptID string) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return
	}
	attempt.timer.Stop()
	s.attempts.Delete(attemptID)
	attempt.closeSubscribers()
	if !attempt.Completed() {
		s.logger.Info("attempt abandoned", zap.String("attempt_id", attemptID))
	}
}

func (s *QuizService) navigate(attemptID string, move func(*engine.Session) bool) (Snapshot, error) {
	attempt, err := s.openAttempt(attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := attempt.snapshot()
	if move(attempt.session) {
		snap = attempt.snapshot()
		attempt.broadcast(Event{Type: EventState, Payload: snap})
	}
	return snap, nil
}

func (s *QuizService) openAttempt(attemptID string) (*Attempt, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	if attempt.Completed() {
		return nil, domain.ErrAttemptCompleted
	}
	return attempt, nil
}

// rejection explains why the session ignored an operation; the timer may
// have completed it in the meantime.
func (s *QuizService) rejection(attempt *Attempt, fallback error) error {
	if attempt.Completed() {
		return domain.ErrAttemptCompleted
	}
	return fallback
}

// finish runs once per attempt, from whichever path completed the session.
func (s *QuizService) finish(attempt *Attempt, record domain.ScoreRecord, reason domain.CompletionReason) {
	result := domain.AttemptResult{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		UserID:      attempt.UserID,
		Score:       record,
		Reason:      reason,
		StartedAt:   attempt.StartedAt,
		CompletedAt: s.now(),
	}
	attempt.setResult(result)
	attempt.timer.Stop()

	if s.results != nil {
		if err := s.results.SaveResult(context.Background(), result); err != nil {
			s.logger.Error("save attempt result",
				zap.String("attempt_id", attempt.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("attempt completed",
		zap.String("attempt_id", attempt.ID),
		zap.String("reason", string(reason)),
		zap.Int("score_percent", record.ScorePercent),
		zap.Bool("passing", record.IsPassing),
	)
	attempt.broadcast(Event{Type: EventCompleted, Payload: result})
}

// IsClientError reports whether err came from a bad request rather than a
// storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrAttemptNotFound) ||
		errors.Is(err, domain.ErrAttemptCompleted) ||
		errors.Is(err, domain.ErrQuestionNotFound) ||
		errors.Is(err, domain.ErrReviewInProgress) ||
		errors.Is(err, domain.ErrQuizNotFound) ||
		errors.Is(err, domain.ErrInvalidQuiz)
}
