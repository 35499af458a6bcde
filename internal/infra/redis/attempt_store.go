package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quiz-session-engine/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Live attempts stay in a local map; the engine session and its timer
//     cannot leave the process that started them.
//   - Redis holds a small ownership marker per attempt so other instances
//     can tell which user and quiz an attempt id belongs to.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

// AttemptMarker is the JSON document stored per live attempt.
type AttemptMarker struct {
	QuizID    string    `json:"quizId"`
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
}

func NewAttemptStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AttemptStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Save(attempt *app.Attempt) {
	s.mu.Lock()
	s.attempts[attempt.ID] = attempt
	s.mu.Unlock()

	// best-effort ownership marker
	data, err := json.Marshal(AttemptMarker{QuizID: attempt.QuizID, UserID: attempt.UserID, StartedAt: attempt.StartedAt})
	if err == nil {
		err = s.client.Set(context.Background(), s.key(attempt.ID), data, s.ttl).Err()
	}
	if err != nil {
		s.logger.Warn("mark attempt live", zap.String("attempt_id", attempt.ID), zap.Error(err))
	}
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

// Marker reads the ownership marker of an attempt, live on any instance.
func (s *AttemptStore) Marker(ctx context.Context, attemptID string) (AttemptMarker, bool, error) {
	data, err := s.client.Get(ctx, s.key(attemptID)).Bytes()
	if err == redis.Nil {
		return AttemptMarker{}, false, nil
	}
	if err != nil {
		return AttemptMarker{}, false, err
	}
	var marker AttemptMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return AttemptMarker{}, false, err
	}
	return marker, true, nil
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
