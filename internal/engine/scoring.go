package engine

import (
	"math"

	"quiz-session-engine/internal/domain"
)

// Score grades every processed question and builds the score record.
//
// Weights are looked up by the question's position in processed, not by its
// id. A position without a positive weight counts as 1. With no weights at
// all the result is the plain fraction of correct answers.
func Score(processed []domain.Question, answers map[string]domain.Answer, weights map[int]float64, passingPercent int) domain.ScoreRecord {
	record := domain.ScoreRecord{TotalQuestions: len(processed)}
	if len(processed) == 0 {
		return record
	}

	var earned, possible float64
	for pos, q := range processed {
		weight := 1.0
		if len(weights) > 0 {
			if w, ok := weights[pos]; ok && w > 0 {
				weight = w
			}
		}
		possible += weight

		var answer *domain.Answer
		if a, ok := answers[q.ID]; ok {
			answer = &a
		}
		if Grade(q, answer) {
			record.CorrectCount++
			earned += weight
		}
	}

	if len(weights) > 0 {
		record.ScorePercent = percent(earned, possible)
	} else {
		record.ScorePercent = percent(float64(record.CorrectCount), float64(record.TotalQuestions))
	}
	record.IsPassing = record.ScorePercent >= passingPercent
	return record
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * part / whole))
}
