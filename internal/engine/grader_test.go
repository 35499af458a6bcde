package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-session-engine/internal/domain"
)

func TestGradeByQuestionType(t *testing.T) {
	multi := domain.Question{
		ID:               "m",
		Type:             domain.MultiChoice,
		Options:          []domain.Option{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}},
		CorrectOptionIDs: []int{0, 3},
	}
	blank := domain.Question{ID: "f", Type: domain.FillInBlank, AcceptedAnswers: []string{"Availability Zone", "AZ"}}
	short := domain.Question{ID: "s", Type: domain.ShortAnswer, AcceptedAnswers: []string{"idempotent"}}
	matching := domain.Question{ID: "p", Type: domain.Matching, MatchingPairs: map[string]string{"a": "x", "b": "y"}}
	ordering := domain.Question{ID: "o", Type: domain.Ordering, OrderingSequence: []string{"plan", "build", "ship"}}

	tests := []struct {
		name     string
		question domain.Question
		answer   domain.Answer
		want     bool
	}{
		{"single correct", singleChoice("1", 1, "a", "b"), domain.SingleChoiceAnswer(1), true},
		{"single wrong", singleChoice("1", 1, "a", "b"), domain.SingleChoiceAnswer(0), false},
		{"true false correct", trueFalse("2", 0), domain.SingleChoiceAnswer(0), true},
		{"true false wrong", trueFalse("2", 0), domain.SingleChoiceAnswer(1), false},
		{"multi exact", multi, domain.MultiChoiceAnswer(0, 3), true},
		{"multi order independent", multi, domain.MultiChoiceAnswer(3, 0), true},
		{"multi duplicates ignored", multi, domain.MultiChoiceAnswer(3, 0, 3), true},
		{"multi missing one", multi, domain.MultiChoiceAnswer(0), false},
		{"multi extra one", multi, domain.MultiChoiceAnswer(0, 1, 3), false},
		{"blank case and space", blank, domain.TextAnswer("  availability zone "), true},
		{"blank alternate", blank, domain.TextAnswer("az"), true},
		{"blank wrong", blank, domain.TextAnswer("region"), false},
		{"short exact", short, domain.TextAnswer("Idempotent"), true},
		{"matching exact", matching, domain.MatchingAnswer(map[string]string{"b": "y", "a": "x"}), true},
		{"matching swapped", matching, domain.MatchingAnswer(map[string]string{"a": "y", "b": "x"}), false},
		{"matching missing key", matching, domain.MatchingAnswer(map[string]string{"a": "x"}), false},
		{"matching extra key", matching, domain.MatchingAnswer(map[string]string{"a": "x", "b": "y", "c": "z"}), false},
		{"ordering exact", ordering, domain.OrderingAnswer("plan", "build", "ship"), true},
		{"ordering swapped", ordering, domain.OrderingAnswer("build", "plan", "ship"), false},
		{"ordering short", ordering, domain.OrderingAnswer("plan", "build"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			answer := tc.answer
			assert.Equal(t, tc.want, Grade(tc.question, &answer))
		})
	}
}

func TestGradeIsTotalForMalformedInput(t *testing.T) {
	questions := []domain.Question{
		singleChoice("1", 1, "a", "b"),
		trueFalse("2", 0),
		{ID: "m", Type: domain.MultiChoice, CorrectOptionIDs: []int{1}},
		{ID: "f", Type: domain.FillInBlank, AcceptedAnswers: []string{"x"}},
		{ID: "s", Type: domain.ShortAnswer, AcceptedAnswers: []string{"x"}},
		{ID: "p", Type: domain.Matching, MatchingPairs: map[string]string{"a": "b"}},
		{ID: "o", Type: domain.Ordering, OrderingSequence: []string{"a"}},
		{ID: "u", Type: domain.QuestionType("essay")},
		{ID: "missing-key", Type: domain.SingleChoice},
		{ID: "missing-multi", Type: domain.MultiChoice},
		{ID: "missing-pairs", Type: domain.Matching},
		{ID: "missing-seq", Type: domain.Ordering},
	}
	malformed := []*domain.Answer{
		nil,
		{},
		{Text: new(string)},
		{OptionIDs: []int{}},
		{Pairs: map[string]string{}},
		{Sequence: []string{}},
	}

	for _, q := range questions {
		for _, a := range malformed {
			assert.NotPanics(t, func() {
				assert.False(t, Grade(q, a), "question %s", q.ID)
			})
		}
	}

	// A wrong-shaped but otherwise valid answer still grades as incorrect.
	text := domain.TextAnswer("1")
	assert.False(t, Grade(singleChoice("1", 1, "a", "b"), &text))
	single := domain.SingleChoiceAnswer(0)
	assert.False(t, Grade(domain.Question{ID: "o", Type: domain.Ordering, OrderingSequence: []string{"a"}}, &single))
}
