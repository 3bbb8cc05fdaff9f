package reminder

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeClock drives the scheduler deterministically without sleeping.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestScheduler(intervalSeconds int, enabled bool) (*Scheduler, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	s := NewScheduler(1, enabled, testLogger())
	s.now = clock.now
	s.mu.Lock()
	s.intervalSeconds = intervalSeconds
	s.lastFiredAt = clock.current
	s.mu.Unlock()

	return s, clock
}

// drain collects everything currently buffered on the event channel.
func drain(s *Scheduler) []Event {
	var events []Event
	for {
		select {
		case e := <-s.events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func countByType(events []Event, eventType EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestScheduler_FiresExactlyOnceAfterInterval(t *testing.T) {
	s, clock := newTestScheduler(2, true)

	// Three one-second ticks: the reminder fires on the tick where
	// elapsed reaches the interval, and only there
	for i := 0; i < 3; i++ {
		clock.advance(time.Second)
		s.step()
	}

	events := drain(s)
	if got := countByType(events, EventReminder); got != 1 {
		t.Fatalf("expected exactly 1 reminder, got %d", got)
	}

	// The countdown must have reset to the full interval on the firing tick
	if remaining := s.RemainingSeconds(); remaining != 1 {
		// one second elapsed since the fire (third tick)
		t.Errorf("expected 1 second remaining after fire plus one tick, got %d", remaining)
	}

	for _, e := range events {
		if e.Type == EventReminder {
			if e.ID == "" {
				t.Error("expected reminder event to carry an ID")
			}
			if e.RemainingSeconds != 2 {
				t.Errorf("expected countdown reset to 2 on fire, got %d", e.RemainingSeconds)
			}
		}
	}
}

func TestScheduler_DisabledNeverFires(t *testing.T) {
	s, clock := newTestScheduler(2, false)

	for i := 0; i < 10; i++ {
		clock.advance(time.Second)
		s.step()
	}

	if events := drain(s); len(events) != 0 {
		t.Errorf("expected no events while disabled, got %d", len(events))
	}
}

func TestScheduler_CountdownPublishedEveryTick(t *testing.T) {
	s, clock := newTestScheduler(60, true)

	for i := 0; i < 5; i++ {
		clock.advance(time.Second)
		s.step()
	}

	events := drain(s)
	if got := countByType(events, EventRemainingTime); got != 5 {
		t.Fatalf("expected 5 countdown updates, got %d", got)
	}

	// Recomputed per tick, counting down
	last := -1
	for _, e := range events {
		if e.Type != EventRemainingTime {
			continue
		}
		if last != -1 && e.RemainingSeconds >= last {
			t.Errorf("expected countdown to decrease, got %d after %d", e.RemainingSeconds, last)
		}
		last = e.RemainingSeconds
	}
}

func TestScheduler_ShrinkingIntervalPreservesElapsed(t *testing.T) {
	s, clock := newTestScheduler(60, true)

	// Wait 40 seconds of a 60 second interval
	for i := 0; i < 40; i++ {
		clock.advance(time.Second)
		s.step()
	}
	drain(s)

	// Shrink to 30 seconds. Documented policy: elapsed time is
	// preserved, so the reminder is already due and fires on the next
	// tick rather than synchronously inside the setter.
	s.mu.Lock()
	s.intervalSeconds = 30
	s.mu.Unlock()

	if got := countByType(drain(s), EventReminder); got != 0 {
		t.Fatal("reconfiguration must not fire synchronously")
	}

	clock.advance(time.Second)
	s.step()

	if got := countByType(drain(s), EventReminder); got != 1 {
		t.Fatalf("expected the overdue reminder on the next tick, got %d", got)
	}
}

func TestScheduler_GrowingIntervalDoesNotFireRetroactively(t *testing.T) {
	s, clock := newTestScheduler(30, true)

	// 25 seconds elapsed, then the interval grows to 60
	for i := 0; i < 25; i++ {
		clock.advance(time.Second)
		s.step()
	}
	drain(s)

	s.mu.Lock()
	s.intervalSeconds = 60
	s.mu.Unlock()

	// Ticks 26..45: under the old interval the reminder would have fired
	// at 30; under the new one nothing fires until 60
	for i := 0; i < 20; i++ {
		clock.advance(time.Second)
		s.step()
	}

	if got := countByType(drain(s), EventReminder); got != 0 {
		t.Fatalf("expected no retroactive fire after growing the interval, got %d", got)
	}

	if remaining := s.RemainingSeconds(); remaining != 15 {
		t.Errorf("expected 15 seconds remaining (45 of 60 elapsed), got %d", remaining)
	}
}

func TestScheduler_ReEnableResetsCountdown(t *testing.T) {
	s, clock := newTestScheduler(10, true)

	for i := 0; i < 7; i++ {
		clock.advance(time.Second)
		s.step()
	}

	s.SetEnabled(false)
	clock.advance(30 * time.Second)

	// The explicit re-enable transition restarts the countdown from now
	s.SetEnabled(true)
	drain(s)

	clock.advance(time.Second)
	s.step()

	if got := countByType(drain(s), EventReminder); got != 0 {
		t.Fatal("expected no fire immediately after re-enable")
	}
	if remaining := s.RemainingSeconds(); remaining != 9 {
		t.Errorf("expected fresh countdown after re-enable, got %d remaining", remaining)
	}
}

func TestScheduler_StartStopClosesEventChannel(t *testing.T) {
	s := NewScheduler(45, true, testLogger())

	s.Start()
	s.Stop()

	// After Stop the channel must be closed and deliver no further events
	select {
	case _, ok := <-s.Events():
		if ok {
			t.Error("expected no events after Stop")
		}
	case <-time.After(time.Second):
		t.Error("expected event channel to be closed after Stop")
	}
}

func TestScheduler_IntervalMinutesFloor(t *testing.T) {
	s := NewScheduler(0, true, testLogger())

	if got := s.IntervalSeconds(); got != 60 {
		t.Errorf("expected sub-minute interval raised to 60 seconds, got %d", got)
	}

	s.SetIntervalMinutes(45)
	if got := s.IntervalSeconds(); got != 45*60 {
		t.Errorf("expected 2700 seconds, got %d", got)
	}
}

func TestScheduler_ConcurrentReconfigurationDuringTicks(t *testing.T) {
	s := NewScheduler(1, true, testLogger())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.SetIntervalMinutes(1 + i%60)
			s.SetEnabled(i%2 == 0)
		}
	}()

	// Ticks evaluated while setters hammer must never observe a torn
	// interval; the full event buffer drops instead of blocking
	for i := 0; i < 5000; i++ {
		s.step()
		if got := s.IntervalSeconds(); got < 60 || got > 3600 {
			t.Errorf("torn interval under concurrency: %d", got)
			break
		}
		s.RemainingSeconds()
	}
	close(stop)
	wg.Wait()
	drain(s)
}
