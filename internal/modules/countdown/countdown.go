// Package countdown runs the per-room start clock.
package countdown

import (
	"sync"
	"time"
)

const (
	DefaultStart    = 5
	DefaultInterval = time.Second
)

// Tick is one step of a countdown. Elapsed is set on the final tick, after
// Remaining has counted down through zero.
type Tick struct {
	Remaining int
	Elapsed   bool
}

type TickFunc func(t *Timer, tick Tick)

type Scheduler struct {
	start    int
	interval time.Duration
}

func NewScheduler(start int, interval time.Duration) *Scheduler {
	if start < 0 {
		start = DefaultStart
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{start: start, interval: interval}
}

func (s *Scheduler) StartValue() int {
	return s.start
}

// Start launches a countdown. onTick is called once per interval with
// start, start-1, ..., 0 and then once more with Elapsed set. No tick is
// delivered once Stop has returned, unless onTick was already running.
func (s *Scheduler) Start(onTick TickFunc) *Timer {
	t := &Timer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go t.run(s.start, s.interval, onTick)

	return t
}

type Timer struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Stop cancels the timer. It never blocks and is safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Done is closed once the timer goroutine has exited.
func (t *Timer) Done() <-chan struct{} {
	return t.done
}

func (t *Timer) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

func (t *Timer) run(start int, interval time.Duration, onTick TickFunc) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	remaining := start
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		if t.stopped() {
			return
		}

		if remaining < 0 {
			onTick(t, Tick{Elapsed: true})
			return
		}

		onTick(t, Tick{Remaining: remaining})
		remaining--
	}
}

// Slot holds at most one live timer. Starting a new timer always stops the
// one it replaces first.
type Slot struct {
	mu      sync.Mutex
	current *Timer
}

// Restart stops the current timer, if any, and starts a new one.
func (s *Slot) Restart(scheduler *Scheduler, onTick TickFunc) *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}

	s.current = scheduler.Start(onTick)
	return s.current
}

// Cancel stops the current timer. It reports whether one was running.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}

	s.current.Stop()
	s.current = nil
	return true
}

// Holds reports whether t is the slot's live timer.
func (s *Slot) Holds(t *Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t != nil && s.current == t
}

func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Clear empties the slot if it still holds t.
func (s *Slot) Clear(t *Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != t {
		return false
	}

	s.current.Stop()
	s.current = nil
	return true
}
