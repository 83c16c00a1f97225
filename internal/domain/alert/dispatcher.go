package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarer-travel/service-companion/internal/clock"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
)

// DefaultTTL is how long an alert stays visible before it dismisses itself.
const DefaultTTL = 6 * time.Second

// ClearReason explains why the visible alert went away.
type ClearReason string

const (
	ClearedExpired   ClearReason = "expired"
	ClearedDismissed ClearReason = "dismissed"
	ClearedReplaced  ClearReason = "replaced"
	ClearedClosed    ClearReason = "closed"
)

// ClearFunc is notified after an alert stops being visible. It is called
// without any dispatcher lock held.
type ClearFunc func(a ZoneAlert, reason ClearReason)

// Dispatcher turns zone transitions into at most one visible alert. A new
// alert replaces the pending one instead of queueing behind it, and each
// alert auto-dismisses after the TTL unless dismissed first.
type Dispatcher struct {
	clock   clock.Clock
	ttl     time.Duration
	expiry  *clock.Slot
	onClear ClearFunc

	mu            sync.Mutex
	active        *ZoneAlert
	lastEnteredID string
}

// NewDispatcher creates a Dispatcher. A non-positive ttl falls back to DefaultTTL.
func NewDispatcher(c clock.Clock, ttl time.Duration, onClear ClearFunc) *Dispatcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Dispatcher{
		clock:   c,
		ttl:     ttl,
		expiry:  clock.NewSlot(c),
		onClear: onClear,
	}
}

// Handle consumes a membership transition. It returns the alert that became
// visible, if any.
func (d *Dispatcher) Handle(tr zone.Transition) (*ZoneAlert, bool) {
	if !tr.Changed() || tr.Zone == nil {
		return nil, false
	}

	d.mu.Lock()
	now := d.clock.Now()
	var next ZoneAlert
	switch tr.Kind {
	case zone.TransitionEnter:
		if tr.Zone.ID == d.lastEnteredID {
			d.mu.Unlock()
			return nil, false
		}
		d.lastEnteredID = tr.Zone.ID
		next = newEnteringAlert(*tr.Zone, now, d.ttl)
	case zone.TransitionExit:
		d.lastEnteredID = ""
		next = newExitingAlert(*tr.Zone, now, d.ttl)
	default:
		d.mu.Unlock()
		return nil, false
	}

	replaced := d.active
	d.active = &next
	id := next.ID
	d.expiry.Arm(d.ttl, func() { d.expire(id) })
	d.mu.Unlock()

	if replaced != nil {
		d.notify(*replaced, ClearedReplaced)
	}
	raised := next
	return &raised, true
}

// Active returns the visible alert.
func (d *Dispatcher) Active() (ZoneAlert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return ZoneAlert{}, false
	}
	return *d.active, true
}

// Dismiss hides the visible alert if its ID matches and cancels its pending
// auto-dismiss. Dismissing a stale ID is a no-op and reports false.
func (d *Dispatcher) Dismiss(id uuid.UUID) bool {
	d.mu.Lock()
	if d.active == nil || d.active.ID != id {
		d.mu.Unlock()
		return false
	}
	cleared := *d.active
	d.active = nil
	d.expiry.Cancel()
	d.mu.Unlock()

	d.notify(cleared, ClearedDismissed)
	return true
}

// Close drops the visible alert and cancels every pending timer.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	cleared := d.active
	d.active = nil
	d.lastEnteredID = ""
	d.expiry.Cancel()
	d.mu.Unlock()

	if cleared != nil {
		d.notify(*cleared, ClearedClosed)
	}
}

func (d *Dispatcher) expire(id uuid.UUID) {
	d.mu.Lock()
	if d.active == nil || d.active.ID != id {
		d.mu.Unlock()
		return
	}
	cleared := *d.active
	d.active = nil
	d.mu.Unlock()

	d.notify(cleared, ClearedExpired)
}

func (d *Dispatcher) notify(a ZoneAlert, reason ClearReason) {
	if d.onClear != nil {
		d.onClear(a, reason)
	}
}
