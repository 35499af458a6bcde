package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-session-engine/internal/domain"
)

// ResultStore keeps finished attempt results in process memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.AttemptResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.AttemptResult)}
}

// SaveResult stores a result; the first result per attempt wins.
func (s *ResultStore) SaveResult(_ context.Context, result domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.AttemptID]; ok {
		return nil
	}
	s.results[result.AttemptID] = result
	return nil
}

// ResultsForUser returns a user's results, oldest first.
func (s *ResultStore) ResultsForUser(_ context.Context, userID string) ([]domain.AttemptResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptResult, 0)
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out, nil
}
