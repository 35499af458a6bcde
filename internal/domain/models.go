package domain

import "time"

// QuestionType selects the grading rule for a question.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	TrueFalse    QuestionType = "true_false"
	FillInBlank  QuestionType = "fill_in_blank"
	ShortAnswer  QuestionType = "short_answer"
	Matching     QuestionType = "matching"
	Ordering     QuestionType = "ordering"
)

// HasShuffleableOptions reports whether option order carries no meaning for the type.
func (t QuestionType) HasShuffleableOptions() bool {
	return t == SingleChoice || t == MultiChoice
}

// FeedbackMode controls whether correctness is revealed right after answering.
type FeedbackMode string

const (
	FeedbackInstant  FeedbackMode = "instant"
	FeedbackDeferred FeedbackMode = "deferred"
)

// DefaultPassingScorePercent applies when a quiz does not set its own threshold.
const DefaultPassingScorePercent = 70

// QuizConfig is fixed for the lifetime of an attempt.
type QuizConfig struct {
	QuestionCount          int             `json:"questionCount" yaml:"questionCount" validate:"gte=0"`
	TimeLimitMinutes       *int            `json:"timeLimitMinutes,omitempty" yaml:"timeLimitMinutes" validate:"omitempty,gte=0"`
	PassingScorePercent    *int            `json:"passingScorePercent,omitempty" yaml:"passingScorePercent" validate:"omitempty,gte=0,lte=100"`
	RandomizeQuestions     bool            `json:"randomizeQuestions" yaml:"randomizeQuestions"`
	RandomizeAnswerOptions bool            `json:"randomizeAnswerOptions" yaml:"randomizeAnswerOptions"`
	FeedbackMode           FeedbackMode    `json:"feedbackMode" yaml:"feedbackMode" validate:"omitempty,oneof=instant deferred"`
	QuestionWeights        map[int]float64 `json:"questionWeights,omitempty" yaml:"questionWeights" validate:"omitempty,dive,keys,gte=0,endkeys,gt=0"`
}

// PassingThreshold returns the configured passing percentage or the default.
func (c QuizConfig) PassingThreshold() int {
	if c.PassingScorePercent == nil {
		return DefaultPassingScorePercent
	}
	return *c.PassingScorePercent
}

// Option is one selectable choice. For shuffled questions the id equals its rendering position.
type Option struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Question carries exactly one correctness reference matching its Type.
type Question struct {
	ID               string            `json:"id" validate:"required"`
	Type             QuestionType      `json:"questionType" validate:"required"`
	Prompt           string            `json:"prompt"`
	Options          []Option          `json:"options,omitempty"`
	CorrectOptionID  *int              `json:"correctOptionId,omitempty"`
	CorrectOptionIDs []int             `json:"correctOptionIds,omitempty"`
	AcceptedAnswers  []string          `json:"acceptedAnswers,omitempty"`
	MatchingPairs    map[string]string `json:"matchingPairs,omitempty"`
	OrderingSequence []string          `json:"orderingSequence,omitempty"`
	Explanation      string            `json:"explanation,omitempty"`
}

// Public strips every correctness reference so the question can be shown to a participant.
func (q Question) Public() Question {
	out := Question{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Options: append([]Option(nil), q.Options...),
	}
	if len(q.MatchingPairs) > 0 {
		// Participants still need both sides of the pairing domain.
		out.MatchingPairs = make(map[string]string, len(q.MatchingPairs))
		for left := range q.MatchingPairs {
			out.MatchingPairs[left] = ""
		}
	}
	return out
}

// Quiz is a configured collection of questions.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title"`
	Config    QuizConfig `json:"config"`
	Questions []Question `json:"questions" validate:"dive"`
}

// Answer is a submitted response; only the field matching the question type is set.
type Answer struct {
	OptionID  *int              `json:"optionId,omitempty"`
	OptionIDs []int             `json:"optionIds,omitempty"`
	Text      *string           `json:"text,omitempty"`
	Pairs     map[string]string `json:"pairs,omitempty"`
	Sequence  []string          `json:"sequence,omitempty"`
}

// SingleChoiceAnswer answers single_choice and true_false questions.
func SingleChoiceAnswer(optionID int) Answer {
	return Answer{OptionID: &optionID}
}

// MultiChoiceAnswer answers multi_choice questions.
func MultiChoiceAnswer(optionIDs ...int) Answer {
	return Answer{OptionIDs: append([]int(nil), optionIDs...)}
}

// TextAnswer answers fill_in_blank and short_answer questions.
func TextAnswer(text string) Answer {
	return Answer{Text: &text}
}

// MatchingAnswer answers matching questions with left id -> right id pairs.
func MatchingAnswer(pairs map[string]string) Answer {
	cp := make(map[string]string, len(pairs))
	for k, v := range pairs {
		cp[k] = v
	}
	return Answer{Pairs: cp}
}

// OrderingAnswer answers ordering questions with item ids in the chosen order.
func OrderingAnswer(sequence ...string) Answer {
	return Answer{Sequence: append([]string(nil), sequence...)}
}

// ScoreRecord is the immutable outcome of a finished attempt.
type ScoreRecord struct {
	ScorePercent   int  `json:"scorePercent"`
	CorrectCount   int  `json:"correctCount"`
	TotalQuestions int  `json:"totalQuestions"`
	IsPassing      bool `json:"isPassing"`
}

// CompletionReason records what moved an attempt into its terminal state.
type CompletionReason string

const (
	CompletedByParticipant CompletionReason = "submitted"
	CompletedByTimer       CompletionReason = "expired"
)

// AttemptResult is what the service hands to result storage.
type AttemptResult struct {
	AttemptID   string           `json:"attemptId"`
	QuizID      string           `json:"quizId"`
	UserID      string           `json:"userId"`
	Score       ScoreRecord      `json:"score"`
	Reason      CompletionReason `json:"reason"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt time.Time        `json:"completedAt"`
}
