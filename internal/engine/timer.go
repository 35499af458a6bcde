package engine

import (
	"context"
	"sync"
	"time"

	"quiz-session-engine/internal/domain"
)

// TimerState is the lifecycle of a Timer.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired"
	TimerStopped TimerState = "stopped"
)

// Completer is the part of a session the timer is allowed to touch.
type Completer interface {
	Complete() (domain.ScoreRecord, bool)
	Done() <-chan struct{}
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithTickInterval overrides the one-second tick, mostly for tests.
func WithTickInterval(d time.Duration) TimerOption {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// OnTick registers a callback receiving the remaining seconds after each tick.
func OnTick(fn func(remaining int)) TimerOption {
	return func(t *Timer) { t.onTick = fn }
}

// OnExpire registers a callback invoked when expiry was the call that
// completed the session.
func OnExpire(fn func(domain.ScoreRecord)) TimerOption {
	return func(t *Timer) { t.onExpire = fn }
}

// Timer counts down a session's time budget and forces completion at zero.
// A nil limit leaves the timer idle forever.
type Timer struct {
	session  Completer
	interval time.Duration
	onTick   func(int)
	onExpire func(domain.ScoreRecord)

	mu        sync.Mutex
	state     TimerState
	remaining int
	cancel    context.CancelFunc
}

// NewTimer builds a timer for limitMinutes; negative limits are treated as zero.
func NewTimer(limitMinutes *int, session Completer, opts ...TimerOption) *Timer {
	t := &Timer{
		session:  session,
		interval: time.Second,
		state:    TimerIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	if limitMinutes != nil {
		minutes := *limitMinutes
		if minutes < 0 {
			minutes = 0
		}
		t.remaining = minutes * 60
		t.state = TimerRunning
	}
	return t
}

// State returns the current timer state.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns the seconds left; zero for idle timers.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Start begins ticking in a background goroutine. A zero budget expires
// synchronously before Start returns. Idle timers never tick.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.state != TimerRunning || t.cancel != nil {
		t.mu.Unlock()
		return
	}
	if t.remaining <= 0 {
		t.mu.Unlock()
		t.expire()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(runCtx)
}

func (t *Timer) run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.halt()
			return
		case <-t.session.Done():
			t.halt()
			return
		case <-ticker.C:
			if !t.Tick() {
				return
			}
		}
	}
}

// Tick decrements the budget by one second. It reports whether the timer is
// still running afterwards.
func (t *Timer) Tick() bool {
	select {
	case <-t.session.Done():
		t.halt()
		return false
	default:
	}

	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	onTick := t.onTick
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if remaining == 0 {
		t.expire()
		return false
	}
	return true
}

func (t *Timer) expire() {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return
	}
	t.state = TimerExpired
	t.remaining = 0
	t.mu.Unlock()

	record, first := t.session.Complete()
	if first && t.onExpire != nil {
		t.onExpire(record)
	}
}

// halt stops a running timer because the session finished some other way.
func (t *Timer) halt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TimerRunning {
		t.state = TimerStopped
	}
}

// Stop halts the countdown. It is safe to call from timer callbacks.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	if t.state == TimerRunning {
		t.state = TimerStopped
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
