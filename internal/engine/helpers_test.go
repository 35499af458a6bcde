package engine

import "quiz-session-engine/internal/domain"

func intPtr(v int) *int { return &v }

func singleChoice(id string, correct int, texts ...string) domain.Question {
	opts := make([]domain.Option, len(texts))
	for i, text := range texts {
		opts[i] = domain.Option{ID: i, Text: text}
	}
	return domain.Question{ID: id, Type: domain.SingleChoice, Options: opts, CorrectOptionID: intPtr(correct)}
}

func trueFalse(id string, correct int) domain.Question {
	return domain.Question{
		ID:              id,
		Type:            domain.TrueFalse,
		Options:         []domain.Option{{ID: 0, Text: "True"}, {ID: 1, Text: "False"}},
		CorrectOptionID: intPtr(correct),
	}
}

// scenarioQuestions is the two-question set used throughout: a single choice
// question "1" keyed to option 1 and a true/false question "2" keyed to 0.
func scenarioQuestions() []domain.Question {
	return []domain.Question{
		singleChoice("1", 1, "EC2", "S3", "RDS"),
		trueFalse("2", 0),
	}
}
