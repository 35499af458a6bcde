package engine

import (
	"math/rand"

	"quiz-session-engine/internal/domain"
)

// RandomizeOptions selects which parts of a question set get shuffled.
type RandomizeOptions struct {
	Questions     bool
	AnswerOptions bool
}

// Randomize returns a processed copy of questions. The input slice and the
// questions in it are never modified.
//
// When answer options are shuffled, option ids are rewritten to their new
// rendering positions (0..n-1). The old-id -> new-position map is built before
// any id is reassigned, and the correctness references are rewritten through
// that map, so a correct option stays correct after the shuffle.
func Randomize(questions []domain.Question, opts RandomizeOptions, rnd *rand.Rand) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i := range questions {
		out[i] = cloneQuestion(questions[i])
	}

	if opts.Questions {
		shuffle(rnd, len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}

	if opts.AnswerOptions {
		for i := range out {
			if out[i].Type.HasShuffleableOptions() {
				shuffleOptions(&out[i], rnd)
			}
		}
	}
	return out
}

func shuffleOptions(q *domain.Question, rnd *rand.Rand) {
	shuffle(rnd, len(q.Options), func(i, j int) { q.Options[i], q.Options[j] = q.Options[j], q.Options[i] })

	newPosition := make(map[int]int, len(q.Options))
	for pos, opt := range q.Options {
		newPosition[opt.ID] = pos
	}
	for pos := range q.Options {
		q.Options[pos].ID = pos
	}

	if q.CorrectOptionID != nil {
		if pos, ok := newPosition[*q.CorrectOptionID]; ok {
			q.CorrectOptionID = &pos
		} else {
			q.CorrectOptionID = nil
		}
	}
	if len(q.CorrectOptionIDs) > 0 {
		remapped := make([]int, 0, len(q.CorrectOptionIDs))
		for _, id := range q.CorrectOptionIDs {
			pos, ok := newPosition[id]
			if !ok {
				// A dangling reference makes the whole key unusable; the question grades as incorrect.
				remapped = nil
				break
			}
			remapped = append(remapped, pos)
		}
		q.CorrectOptionIDs = remapped
	}
}

// shuffle is a Fisher-Yates pass driven by rnd.
func shuffle(rnd *rand.Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		swap(i, j)
	}
}

func cloneQuestion(q domain.Question) domain.Question {
	cp := q
	cp.Options = append([]domain.Option(nil), q.Options...)
	if q.CorrectOptionID != nil {
		id := *q.CorrectOptionID
		cp.CorrectOptionID = &id
	}
	cp.CorrectOptionIDs = append([]int(nil), q.CorrectOptionIDs...)
	cp.AcceptedAnswers = append([]string(nil), q.AcceptedAnswers...)
	cp.OrderingSequence = append([]string(nil), q.OrderingSequence...)
	if q.MatchingPairs != nil {
		cp.MatchingPairs = make(map[string]string, len(q.MatchingPairs))
		for k, v := range q.MatchingPairs {
			cp.MatchingPairs[k] = v
		}
	}
	return cp
}
