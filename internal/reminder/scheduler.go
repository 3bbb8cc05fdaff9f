package reminder

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TickInterval is the fixed scheduler wake-up period. Every blocking
// wait in the loop is bounded by it, so cancellation is always observed
// within one tick.
const TickInterval = time.Second

// eventBuffer bounds the outgoing event channel. The consumer drains on
// its own schedule; if it falls behind, countdown updates are dropped
// rather than blocking the tick loop.
const eventBuffer = 16

// EventType discriminates scheduler events.
type EventType string

const (
	// EventReminder signals that the rest interval elapsed and the user
	// should take a break.
	EventReminder EventType = "reminder"

	// EventRemainingTime is the once-per-tick countdown update for
	// display purposes.
	EventRemainingTime EventType = "remaining_time"
)

// Event is a message from the scheduler goroutine to its consumer.
type Event struct {
	Type             EventType
	ID               string // unique per reminder, empty for countdown updates
	FiredAt          time.Time
	RemainingSeconds int
}

// Scheduler fires a rest reminder whenever the configured interval has
// elapsed. It is Idle while disabled and Waiting while enabled; in both
// states the loop keeps ticking so reconfiguration takes effect on the
// next tick without a restart.
//
// All state is mutex-guarded: setters run on the caller's goroutine
// while the tick loop reads concurrently.
type Scheduler struct {
	mu              sync.Mutex
	enabled         bool
	intervalSeconds int
	lastFiredAt     time.Time

	events   chan Event
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   *slog.Logger

	now func() time.Time // overridable in tests
}

// NewScheduler creates a scheduler. The interval is in minutes to match
// the user-facing setting; values below one minute are raised to one.
func NewScheduler(intervalMinutes int, enabled bool, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		enabled:  enabled,
		events:   make(chan Event, eventBuffer),
		stopChan: make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}
	s.intervalSeconds = minutesToSeconds(intervalMinutes)
	s.lastFiredAt = s.now()
	return s
}

// Events returns the channel carrying reminder and countdown events.
// The channel is closed after Stop returns.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Start launches the tick loop.
func (s *Scheduler) Start() {
	s.ticker = time.NewTicker(TickInterval)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.logger.Info("Reminder scheduler started",
			"interval_sec", s.IntervalSeconds(),
			"enabled", s.Enabled())

		for {
			select {
			case <-s.ticker.C:
				s.step()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop signals the loop to exit, waits for it to finish, then closes
// the event channel. No events are delivered after Stop returns.
func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopChan)
	s.wg.Wait()
	close(s.events)
	s.logger.Info("Reminder scheduler stopped")
}

// step evaluates one tick: fire if the interval elapsed, then publish
// the recomputed countdown.
func (s *Scheduler) step() {
	s.mu.Lock()

	if !s.enabled {
		s.mu.Unlock()
		return
	}

	now := s.now()
	elapsed := now.Sub(s.lastFiredAt)
	interval := time.Duration(s.intervalSeconds) * time.Second

	fired := false
	if elapsed >= interval {
		s.lastFiredAt = now
		elapsed = 0
		fired = true
	}

	remaining := int((interval - elapsed).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	s.mu.Unlock()

	if fired {
		s.emit(Event{
			Type:             EventReminder,
			ID:               uuid.New().String(),
			FiredAt:          now,
			RemainingSeconds: remaining,
		})
	}

	s.emit(Event{
		Type:             EventRemainingTime,
		FiredAt:          now,
		RemainingSeconds: remaining,
	})
}

// emit sends without blocking the tick loop. A full buffer drops the
// event; countdown updates are superseded every tick anyway and a
// dropped reminder only delays the prompt by one interval.
func (s *Scheduler) emit(event Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Debug("Event buffer full, dropping event", "type", event.Type)
	}
}

// SetEnabled toggles the reminder. The disabled-to-enabled transition
// restarts the countdown from now; every other reconfiguration
// preserves elapsed time.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled && !s.enabled {
		s.lastFiredAt = s.now()
	}
	s.enabled = enabled
}

// SetIntervalMinutes reconfigures the interval, effective on the next
// tick. Elapsed time is deliberately preserved: shrinking the interval
// below the time already waited fires on the next tick, and growing it
// pushes the pending reminder out rather than firing it retroactively.
func (s *Scheduler) SetIntervalMinutes(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intervalSeconds = minutesToSeconds(minutes)
}

// Enabled reports whether the scheduler is in the Waiting state.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// IntervalSeconds returns the configured interval.
func (s *Scheduler) IntervalSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalSeconds
}

// RemainingSeconds recomputes the countdown from the clock. Never
// cached; the UI gets a fresh value on every call.
func (s *Scheduler) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.intervalSeconds - int(s.now().Sub(s.lastFiredAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func minutesToSeconds(minutes int) int {
	if minutes < 1 {
		minutes = 1
	}
	return minutes * 60
}
