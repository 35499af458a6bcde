// Package engine runs a single participant through one quiz attempt: it
// randomizes the question set once, tracks navigation and flagged review,
// grades answers per question type and produces the final score record.
package engine

import (
	"strings"

	"quiz-session-engine/internal/domain"
)

// Grade reports whether answer is correct for q. It never panics: a nil
// answer, an answer of the wrong shape, a missing correctness reference or an
// unknown question type all grade as incorrect.
func Grade(q domain.Question, answer *domain.Answer) bool {
	if answer == nil {
		return false
	}
	switch q.Type {
	case domain.SingleChoice, domain.TrueFalse:
		return gradeSingle(q, answer)
	case domain.MultiChoice:
		return gradeMulti(q, answer)
	case domain.FillInBlank, domain.ShortAnswer:
		return gradeText(q, answer)
	case domain.Matching:
		return gradeMatching(q, answer)
	case domain.Ordering:
		return gradeOrdering(q, answer)
	default:
		return false
	}
}

func gradeSingle(q domain.Question, answer *domain.Answer) bool {
	if q.CorrectOptionID == nil || answer.OptionID == nil {
		return false
	}
	return *answer.OptionID == *q.CorrectOptionID
}

func gradeMulti(q domain.Question, answer *domain.Answer) bool {
	if len(q.CorrectOptionIDs) == 0 || len(answer.OptionIDs) == 0 {
		return false
	}
	return intSetEqual(toIntSet(q.CorrectOptionIDs), toIntSet(answer.OptionIDs))
}

func gradeText(q domain.Question, answer *domain.Answer) bool {
	if answer.Text == nil {
		return false
	}
	given := normalizeText(*answer.Text)
	for _, accepted := range q.AcceptedAnswers {
		if normalizeText(accepted) == given {
			return true
		}
	}
	return false
}

func gradeMatching(q domain.Question, answer *domain.Answer) bool {
	if len(q.MatchingPairs) == 0 || answer.Pairs == nil {
		return false
	}
	if len(q.MatchingPairs) != len(answer.Pairs) {
		return false
	}
	for left, right := range q.MatchingPairs {
		got, ok := answer.Pairs[left]
		if !ok || got != right {
			return false
		}
	}
	return true
}

func gradeOrdering(q domain.Question, answer *domain.Answer) bool {
	if len(q.OrderingSequence) == 0 || len(q.OrderingSequence) != len(answer.Sequence) {
		return false
	}
	for i := range q.OrderingSequence {
		if q.OrderingSequence[i] != answer.Sequence[i] {
			return false
		}
	}
	return true
}

// normalizeText trims surrounding whitespace and folds case.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toIntSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intSetEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
