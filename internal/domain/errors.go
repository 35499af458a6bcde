package domain

import "errors"

var (
	// ErrAttemptNotFound is returned when an attempt id is unknown or was abandoned.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id is not part of the attempt.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuiz is returned when quiz content or configuration fails validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrAttemptCompleted is returned when a mutation targets a finished attempt.
	ErrAttemptCompleted = errors.New("quiz attempt already completed")
	// ErrReviewInProgress is returned when submitting without review after review has started.
	ErrReviewInProgress = errors.New("flagged review in progress")
)
