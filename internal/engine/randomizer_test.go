package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
)

func bank() []domain.Question {
	return []domain.Question{
		{
			ID:   "q-single",
			Type: domain.SingleChoice,
			Options: []domain.Option{
				{ID: 10, Text: "IAM"}, {ID: 20, Text: "KMS"}, {ID: 30, Text: "VPC"}, {ID: 40, Text: "SQS"},
			},
			CorrectOptionID: intPtr(30),
		},
		{
			ID:   "q-multi",
			Type: domain.MultiChoice,
			Options: []domain.Option{
				{ID: 7, Text: "Lambda"}, {ID: 8, Text: "EC2"}, {ID: 9, Text: "Fargate"}, {ID: 11, Text: "Glacier"}, {ID: 12, Text: "S3"},
			},
			CorrectOptionIDs: []int{7, 9},
		},
		trueFalse("q-tf", 1),
		{ID: "q-blank", Type: domain.FillInBlank, AcceptedAnswers: []string{"us-east-1"}},
		{ID: "q-order", Type: domain.Ordering, OrderingSequence: []string{"a", "b", "c"}},
		{ID: "q-match", Type: domain.Matching, MatchingPairs: map[string]string{"l1": "r1"}},
	}
}

func optionIDByText(t *testing.T, q domain.Question, text string) int {
	t.Helper()
	for _, opt := range q.Options {
		if opt.Text == text {
			return opt.ID
		}
	}
	t.Fatalf("option %q not found in %s", text, q.ID)
	return -1
}

func TestRandomizeKeepsCorrectOptionsCorrect(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			processed := Randomize(bank(), RandomizeOptions{Questions: true, AnswerOptions: true}, rand.New(rand.NewSource(seed)))
			require.Len(t, processed, len(bank()))

			for _, q := range processed {
				switch q.ID {
				case "q-single":
					answer := domain.SingleChoiceAnswer(optionIDByText(t, q, "VPC"))
					assert.True(t, Grade(q, &answer))
					wrong := domain.SingleChoiceAnswer(optionIDByText(t, q, "IAM"))
					assert.False(t, Grade(q, &wrong))
				case "q-multi":
					answer := domain.MultiChoiceAnswer(optionIDByText(t, q, "Fargate"), optionIDByText(t, q, "Lambda"))
					assert.True(t, Grade(q, &answer))
				case "q-tf":
					answer := domain.SingleChoiceAnswer(1)
					assert.True(t, Grade(q, &answer))
				}
			}
		})
	}
}

func TestRandomizeReassignsOptionIDsToPositions(t *testing.T) {
	processed := Randomize(bank(), RandomizeOptions{AnswerOptions: true}, rand.New(rand.NewSource(42)))

	for _, q := range processed {
		if !q.Type.HasShuffleableOptions() {
			continue
		}
		for pos, opt := range q.Options {
			assert.Equal(t, pos, opt.ID, "question %s", q.ID)
		}
	}
	// Question order is untouched when only options are shuffled.
	for i, q := range bank() {
		assert.Equal(t, q.ID, processed[i].ID)
	}
}

func TestRandomizeLeavesFixedTypesAlone(t *testing.T) {
	processed := Randomize(bank(), RandomizeOptions{Questions: true, AnswerOptions: true}, rand.New(rand.NewSource(7)))
	byID := make(map[string]domain.Question, len(processed))
	for _, q := range processed {
		byID[q.ID] = q
	}

	original := bank()
	assert.Equal(t, original[2].Options, byID["q-tf"].Options)
	assert.Equal(t, original[2].CorrectOptionID, byID["q-tf"].CorrectOptionID)
	assert.Equal(t, original[3].AcceptedAnswers, byID["q-blank"].AcceptedAnswers)
	assert.Equal(t, original[4].OrderingSequence, byID["q-order"].OrderingSequence)
	assert.Equal(t, original[5].MatchingPairs, byID["q-match"].MatchingPairs)
}

func TestRandomizePreservesQuestionIdentity(t *testing.T) {
	processed := Randomize(bank(), RandomizeOptions{Questions: true}, rand.New(rand.NewSource(3)))

	seen := make(map[string]int)
	for _, q := range processed {
		seen[q.ID]++
	}
	for _, q := range bank() {
		assert.Equal(t, 1, seen[q.ID], "question %s", q.ID)
	}
}

func TestRandomizeDoesNotMutateInput(t *testing.T) {
	input := bank()
	_ = Randomize(input, RandomizeOptions{Questions: true, AnswerOptions: true}, rand.New(rand.NewSource(11)))
	assert.Equal(t, bank(), input)
}

func TestRandomizeDropsDanglingCorrectReference(t *testing.T) {
	q := domain.Question{
		ID:              "broken",
		Type:            domain.SingleChoice,
		Options:         []domain.Option{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}},
		CorrectOptionID: intPtr(99),
	}
	processed := Randomize([]domain.Question{q}, RandomizeOptions{AnswerOptions: true}, rand.New(rand.NewSource(1)))
	require.Len(t, processed, 1)
	assert.Nil(t, processed[0].CorrectOptionID)

	for id := 0; id < 2; id++ {
		answer := domain.SingleChoiceAnswer(id)
		assert.False(t, Grade(processed[0], &answer))
	}
}

func TestRandomizeEmptySet(t *testing.T) {
	processed := Randomize(nil, RandomizeOptions{Questions: true, AnswerOptions: true}, rand.New(rand.NewSource(1)))
	assert.Empty(t, processed)
}
