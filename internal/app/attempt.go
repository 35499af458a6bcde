package app

import (
	"sync"
	"time"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// EventType names the kinds of updates pushed to attempt subscribers.
type EventType string

const (
	EventState           EventType = "state"
	EventFeedback        EventType = "feedback"
	EventPendingDecision EventType = "pendingDecision"
	EventTick            EventType = "tick"
	EventCompleted       EventType = "completed"
)

// Event is one update for an attempt's subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// TickPayload carries the remaining time for display.
type TickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// Snapshot is the participant-facing view of an attempt. Questions never
// carry correctness references.
type Snapshot struct {
	AttemptID        string                   `json:"attemptId"`
	QuizID           string                   `json:"quizId"`
	Title            string                   `json:"title,omitempty"`
	Mode             engine.Mode              `json:"mode"`
	Cursor           int                      `json:"cursor"`
	Current          *domain.Question         `json:"current,omitempty"`
	Questions        []domain.Question        `json:"questions"`
	Answers          map[string]domain.Answer `json:"answers"`
	Flagged          []string                 `json:"flagged"`
	FlaggedOrder     []int                    `json:"flaggedOrder,omitempty"`
	PendingDecision  bool                     `json:"pendingDecision"`
	TimerState       engine.TimerState        `json:"timerState"`
	RemainingSeconds int                      `json:"remainingSeconds"`
	Result           *domain.ScoreRecord      `json:"result,omitempty"`
}

// Attempt is one participant's run through a quiz.
type Attempt struct {
	ID        string
	QuizID    string
	UserID    string
	Title     string
	StartedAt time.Time

	session *engine.Session
	timer   *engine.Timer

	mu          sync.RWMutex
	result      *domain.AttemptResult
	subscribers map[chan Event]struct{}
}

func newAttempt(id string, quiz domain.Quiz, userID string, startedAt time.Time, session *engine.Session) *Attempt {
	return &Attempt{
		ID:          id,
		QuizID:      quiz.ID,
		UserID:      userID,
		Title:       quiz.Title,
		StartedAt:   startedAt,
		session:     session,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Completed reports whether the attempt has been scored.
func (a *Attempt) Completed() bool {
	return a.session.Completed()
}

func (a *Attempt) snapshot() Snapshot {
	st := a.session.Snapshot()
	snap := Snapshot{
		AttemptID:       a.ID,
		QuizID:          a.QuizID,
		Title:           a.Title,
		Mode:            st.Mode,
		Cursor:          st.Cursor,
		Questions:       make([]domain.Question, len(st.Questions)),
		Answers:         st.Answers,
		Flagged:         st.Flagged,
		FlaggedOrder:    st.FlaggedOrder,
		PendingDecision: st.PendingDecision,
		Result:          st.Result,
		TimerState:      engine.TimerIdle,
	}
	for i, q := range st.Questions {
		snap.Questions[i] = q.Public()
	}
	if current, ok := st.Current(); ok {
		public := current.Public()
		snap.Current = &public
	}
	if a.timer != nil {
		snap.TimerState = a.timer.State()
		snap.RemainingSeconds = a.timer.Remaining()
	}
	return snap
}

func (a *Attempt) setResult(result domain.AttemptResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = &result
}

func (a *Attempt) attemptResult() (domain.AttemptResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.result == nil {
		return domain.AttemptResult{}, false
	}
	return *a.result, true
}

func (a *Attempt) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	ch <- Event{Type: EventState, Payload: a.snapshot()}
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) broadcast(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow reader: drop its oldest event instead of blocking the attempt.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (a *Attempt) closeSubscribers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}
