package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-session-engine/internal/domain"
)

func TestScoreAllCorrect(t *testing.T) {
	answers := map[string]domain.Answer{
		"1": domain.SingleChoiceAnswer(1),
		"2": domain.SingleChoiceAnswer(0),
	}
	got := Score(scenarioQuestions(), answers, nil, 70)
	assert.Equal(t, domain.ScoreRecord{ScorePercent: 100, CorrectCount: 2, TotalQuestions: 2, IsPassing: true}, got)
}

func TestScoreUnansweredCountsAsIncorrect(t *testing.T) {
	answers := map[string]domain.Answer{"1": domain.SingleChoiceAnswer(1)}
	got := Score(scenarioQuestions(), answers, nil, 70)
	assert.Equal(t, domain.ScoreRecord{ScorePercent: 50, CorrectCount: 1, TotalQuestions: 2, IsPassing: false}, got)
}

func TestScoreEmptySet(t *testing.T) {
	got := Score(nil, nil, map[int]float64{0: 2}, 0)
	assert.Equal(t, domain.ScoreRecord{}, got)
}

func TestScoreWeightsByPosition(t *testing.T) {
	questions := []domain.Question{
		singleChoice("a", 0, "x", "y"),
		singleChoice("b", 0, "x", "y"),
		singleChoice("c", 0, "x", "y"),
	}
	answers := map[string]domain.Answer{
		"c": domain.SingleChoiceAnswer(0),
	}
	weights := map[int]float64{0: 1, 1: 1, 2: 2}

	got := Score(questions, answers, weights, 50)
	assert.Equal(t, 50, got.ScorePercent)
	assert.Equal(t, 1, got.CorrectCount)
	assert.True(t, got.IsPassing)

	// Same questions in another order: the heavy weight stays with position 2.
	reordered := []domain.Question{questions[2], questions[0], questions[1]}
	got = Score(reordered, answers, weights, 50)
	assert.Equal(t, 25, got.ScorePercent)
	assert.False(t, got.IsPassing)
}

func TestScoreMissingWeightDefaultsToOne(t *testing.T) {
	questions := []domain.Question{singleChoice("a", 0, "x"), singleChoice("b", 0, "x")}
	answers := map[string]domain.Answer{"b": domain.SingleChoiceAnswer(0)}

	got := Score(questions, answers, map[int]float64{0: 3, 1: -1}, 70)
	assert.Equal(t, 25, got.ScorePercent)
}

func TestScoreEqualWeightsMatchUnweighted(t *testing.T) {
	questions := []domain.Question{
		singleChoice("a", 0, "x", "y"),
		singleChoice("b", 0, "x", "y"),
		singleChoice("c", 0, "x", "y"),
	}
	answerSets := []map[string]domain.Answer{
		{},
		{"a": domain.SingleChoiceAnswer(0)},
		{"a": domain.SingleChoiceAnswer(0), "b": domain.SingleChoiceAnswer(0)},
		{"a": domain.SingleChoiceAnswer(0), "b": domain.SingleChoiceAnswer(1), "c": domain.SingleChoiceAnswer(0)},
	}
	for _, w := range []float64{0.5, 1, 3, 10} {
		weights := map[int]float64{0: w, 1: w, 2: w}
		for _, answers := range answerSets {
			assert.Equal(t, Score(questions, answers, nil, 70), Score(questions, answers, weights, 70))
		}
	}
}

func TestScoreRounding(t *testing.T) {
	questions := []domain.Question{singleChoice("a", 0, "x"), singleChoice("b", 0, "x"), singleChoice("c", 0, "x")}
	answers := map[string]domain.Answer{"a": domain.SingleChoiceAnswer(0), "b": domain.SingleChoiceAnswer(0)}

	got := Score(questions, answers, nil, 67)
	assert.Equal(t, 67, got.ScorePercent)
	assert.True(t, got.IsPassing)
}
