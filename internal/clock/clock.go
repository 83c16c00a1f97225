package clock

import (
	"sync"
	"time"
)

// Clock abstracts time so sessions can be driven by wall-clock timers in
// production and by a virtual clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc runs fn once after d has elapsed and returns a handle that can cancel it.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable one-shot timer.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Real is the wall-clock implementation of Clock.
type Real struct{}

// NewReal creates a wall-clock Clock.
func NewReal() Real { return Real{} }

// Now returns time.Now in UTC.
func (Real) Now() time.Time { return time.Now().UTC() }

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Slot holds at most one pending timer. Arming the slot replaces whatever was
// pending, and every armed timer carries a generation number so a callback
// that raced with its own cancellation is dropped instead of acting on newer
// state.
type Slot struct {
	clock Clock

	mu    sync.Mutex
	gen   uint64
	timer Timer
}

// NewSlot creates an empty slot bound to the given clock.
func NewSlot(c Clock) *Slot {
	return &Slot{clock: c}
}

// Arm cancels any pending timer and schedules fn after d. It returns the
// generation of the new timer.
func (s *Slot) Arm(d time.Duration, fn func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
	return gen
}

// Cancel stops the pending timer, if any, and invalidates its generation.
// It reports whether a timer was pending.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// Pending reports whether a timer is armed and has not fired yet.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Current reports whether gen is still the generation of the armed timer.
func (s *Slot) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen && s.timer != nil
}
