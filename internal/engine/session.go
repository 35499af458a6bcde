package engine

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"quiz-session-engine/internal/domain"
)

// Mode is the traversal state of a session.
type Mode string

const (
	ModeLinear        Mode = "linear"
	ModeFlaggedReview Mode = "flagged_review"
	ModeCompleted     Mode = "completed"
)

// NextResult tells the caller what a call to Next did.
type NextResult int

const (
	// NextIgnored means nothing changed (completed session, empty set).
	NextIgnored NextResult = iota
	// NextAdvanced means the cursor moved forward.
	NextAdvanced
	// NextPendingDecision means the last linear question was reached with
	// flags outstanding; the caller must choose StartFlaggedReview or
	// SubmitWithoutReview.
	NextPendingDecision
	// NextCompleted means the call finished the session.
	NextCompleted
)

func (r NextResult) String() string {
	switch r {
	case NextAdvanced:
		return "advanced"
	case NextPendingDecision:
		return "pending_decision"
	case NextCompleted:
		return "completed"
	default:
		return "ignored"
	}
}

// Feedback is exposed after an answer when the quiz uses instant feedback.
type Feedback struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// State is a copy of the session taken under its lock.
type State struct {
	Questions       []domain.Question        `json:"questions"`
	Answers         map[string]domain.Answer `json:"answers"`
	Flagged         []string                 `json:"flagged"`
	Mode            Mode                     `json:"mode"`
	Cursor          int                      `json:"cursor"`
	FlaggedOrder    []int                    `json:"flaggedOrder,omitempty"`
	PendingDecision bool                     `json:"pendingDecision"`
	Result          *domain.ScoreRecord      `json:"result,omitempty"`
}

// Current returns the question under the cursor, derived from mode and cursor.
func (st State) Current() (domain.Question, bool) {
	idx, ok := currentIndex(st.Mode, st.Cursor, len(st.Questions), st.FlaggedOrder)
	if !ok {
		return domain.Question{}, false
	}
	return st.Questions[idx], true
}

const (
	phaseOpen int32 = iota
	phaseCompleting
	phaseCompleted
)

// Option configures a Session.
type Option func(*Session)

// WithRand sets the source used for the one-time randomization.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// Session owns one attempt. All methods are safe for concurrent use; the
// timer goroutine only ever calls Complete and Done.
type Session struct {
	cfg       domain.QuizConfig
	rnd       *rand.Rand
	questions []domain.Question
	positions map[string]int

	mu           sync.Mutex
	answers      map[string]domain.Answer
	flagged      map[string]struct{}
	mode         Mode
	cursor       int
	flaggedOrder []int
	pending      bool
	feedback     *Feedback
	result       domain.ScoreRecord

	phase atomic.Int32
	done  chan struct{}
}

// NewSession randomizes questions once according to cfg and starts the
// session in linear mode at the first question.
func NewSession(cfg domain.QuizConfig, questions []domain.Question, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		answers: make(map[string]domain.Answer),
		flagged: make(map[string]struct{}),
		mode:    ModeLinear,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	processed := Randomize(questions, RandomizeOptions{
		Questions:     cfg.RandomizeQuestions,
		AnswerOptions: cfg.RandomizeAnswerOptions,
	}, s.rnd)
	if cfg.QuestionCount > 0 && cfg.QuestionCount < len(processed) {
		processed = processed[:cfg.QuestionCount]
	}
	s.questions = processed
	s.positions = make(map[string]int, len(processed))
	for i, q := range processed {
		s.positions[q.ID] = i
	}
	return s
}

// Config returns the configuration the session was built with.
func (s *Session) Config() domain.QuizConfig {
	return s.cfg
}

// Questions returns the processed question list, fixed for the session.
func (s *Session) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	for i := range s.questions {
		out[i] = cloneQuestion(s.questions[i])
	}
	return out
}

// Current returns the question under the cursor.
func (s *Session) Current() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.currentIndexLocked()
	if !ok {
		return domain.Question{}, false
	}
	return s.questions[idx], true
}

// SelectAnswer stores answer for the current question, overwriting any
// previous answer. Answers for any other question id are rejected. In instant
// feedback mode the returned Feedback is non-nil.
func (s *Session) SelectAnswer(questionID string, answer domain.Answer) (*Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeCompleted {
		return nil, false
	}
	idx, ok := s.currentIndexLocked()
	if !ok || s.questions[idx].ID != questionID {
		return nil, false
	}
	s.answers[questionID] = answer
	s.feedback = nil
	if s.cfg.FeedbackMode == domain.FeedbackInstant {
		q := s.questions[idx]
		s.feedback = &Feedback{
			QuestionID:  q.ID,
			Correct:     Grade(q, &answer),
			Explanation: q.Explanation,
		}
		fb := *s.feedback
		return &fb, true
	}
	return nil, true
}

// Feedback returns the most recent instant feedback, if any.
func (s *Session) Feedback() (Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedback == nil {
		return Feedback{}, false
	}
	return *s.feedback, true
}

// ToggleFlag flips the review flag of questionID and reports the new value.
// Flags changed during flagged review do not alter the review order.
func (s *Session) ToggleFlag(questionID string) (flagged bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeCompleted {
		return false, false
	}
	if _, known := s.positions[questionID]; !known {
		return false, false
	}
	if _, set := s.flagged[questionID]; set {
		delete(s.flagged, questionID)
		return false, true
	}
	s.flagged[questionID] = struct{}{}
	return true, true
}

// Next moves forward in the active traversal, signalling a pending decision
// or completing the session at the end.
func (s *Session) Next() NextResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeLinear:
		if len(s.questions) == 0 {
			return NextIgnored
		}
		s.feedback = nil
		if s.cursor < len(s.questions)-1 {
			s.cursor++
			s.pending = false
			return NextAdvanced
		}
		if len(s.flagged) > 0 {
			s.pending = true
			return NextPendingDecision
		}
		s.completeLocked()
		return NextCompleted
	case ModeFlaggedReview:
		s.feedback = nil
		if s.cursor < len(s.flaggedOrder)-1 {
			s.cursor++
			return NextAdvanced
		}
		s.completeLocked()
		return NextCompleted
	default:
		return NextIgnored
	}
}

// Previous moves back one position; it does nothing at the first position.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeCompleted || s.cursor == 0 {
		return false
	}
	s.cursor--
	s.pending = false
	s.feedback = nil
	return true
}

// Jump moves the cursor to questionID within the active traversal. Ids that
// are not part of the traversal are rejected.
func (s *Session) Jump(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, known := s.positions[questionID]
	if !known {
		return false
	}
	switch s.mode {
	case ModeLinear:
		s.cursor = pos
		s.pending = false
	case ModeFlaggedReview:
		found := false
		for i, idx := range s.flaggedOrder {
			if idx == pos {
				s.cursor = i
				found = true
				break
			}
		}
		if !found {
			return false
		}
	default:
		return false
	}
	s.feedback = nil
	return true
}

// StartFlaggedReview switches to the flagged traversal. The review order is
// computed now from the current flags, in processed-question order.
func (s *Session) StartFlaggedReview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeLinear || len(s.flagged) == 0 {
		return false
	}
	order := make([]int, 0, len(s.flagged))
	for i, q := range s.questions {
		if _, ok := s.flagged[q.ID]; ok {
			order = append(order, i)
		}
	}
	s.flaggedOrder = order
	s.mode = ModeFlaggedReview
	s.cursor = 0
	s.pending = false
	s.feedback = nil
	return true
}

// SubmitWithoutReview completes a linear session, skipping flagged review.
func (s *Session) SubmitWithoutReview() (domain.ScoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeLinear {
		return s.result, false
	}
	return s.completeLocked()
}

// Complete scores the session and moves it to the terminal state. Only the
// first call scores and reports true; later calls return the stored record.
func (s *Session) Complete() (domain.ScoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked()
}

func (s *Session) completeLocked() (domain.ScoreRecord, bool) {
	if !s.phase.CompareAndSwap(phaseOpen, phaseCompleting) {
		return s.result, false
	}
	s.result = Score(s.questions, s.answers, s.cfg.QuestionWeights, s.cfg.PassingThreshold())
	s.mode = ModeCompleted
	s.pending = false
	s.phase.Store(phaseCompleted)
	close(s.done)
	return s.result, true
}

// Done is closed once the session reaches the completed state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Completed reports whether the session is in its terminal state.
func (s *Session) Completed() bool {
	return s.phase.Load() == phaseCompleted
}

// Result returns the score record once the session is completed.
func (s *Session) Result() (domain.ScoreRecord, bool) {
	if !s.Completed() {
		return domain.ScoreRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, true
}

// Snapshot copies the full session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Questions:       s.Questions(),
		Answers:         make(map[string]domain.Answer, len(s.answers)),
		Flagged:         make([]string, 0, len(s.flagged)),
		Mode:            s.mode,
		Cursor:          s.cursor,
		FlaggedOrder:    append([]int(nil), s.flaggedOrder...),
		PendingDecision: s.pending,
	}
	for id, a := range s.answers {
		st.Answers[id] = a
	}
	for _, q := range s.questions {
		if _, ok := s.flagged[q.ID]; ok {
			st.Flagged = append(st.Flagged, q.ID)
		}
	}
	if s.mode == ModeCompleted {
		result := s.result
		st.Result = &result
	}
	return st
}

func (s *Session) currentIndexLocked() (int, bool) {
	return currentIndex(s.mode, s.cursor, len(s.questions), s.flaggedOrder)
}

func currentIndex(mode Mode, cursor, total int, flaggedOrder []int) (int, bool) {
	switch mode {
	case ModeLinear:
		if cursor < 0 || cursor >= total {
			return 0, false
		}
		return cursor, true
	case ModeFlaggedReview:
		if cursor < 0 || cursor >= len(flaggedOrder) {
			return 0, false
		}
		return flaggedOrder[cursor], true
	default:
		return 0, false
	}
}
