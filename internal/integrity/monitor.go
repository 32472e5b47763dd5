package integrity

import (
	"sync"
	"time"

	"fullscreen-quiz-service/internal/domain"
)

// Violation is an environment signal that must end the quiz.
type Violation struct {
	Reason domain.TerminationReason
	At     time.Time
}

// Monitor observes the quiz environment on some platform (browser socket, simulator).
type Monitor interface {
	// Subscribe registers fn for violations. The returned func removes it; after it
	// returns no further calls to fn are started. fn may unsubscribe itself or others.
	Subscribe(fn func(Violation)) (unsubscribe func())
	// SuppressBackNavigation re-asserts the current location after a back/forward attempt.
	SuppressBackNavigation()
}

// Hub fans violations out to subscribers and reports at most one violation per session.
// Platform monitors embed it.
type Hub struct {
	now func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
	fired  bool
}

type subscription struct {
	fn      func(Violation)
	removed bool
}

func NewHub() *Hub {
	return NewHubWithClock(time.Now)
}

// NewHubWithClock allows deterministic timestamps in tests.
func NewHubWithClock(now func() time.Time) *Hub {
	return &Hub{now: now, subs: make(map[int]*subscription)}
}

func (h *Hub) Subscribe(fn func(Violation)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	sub := &subscription{fn: fn}
	h.subs[id] = sub
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		sub.removed = true
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Report delivers reason to current subscribers unless a violation was already delivered.
// Subscribers run outside the lock so they may unsubscribe from inside the callback; each
// one is checked for removal right before it is called.
func (h *Hub) Report(reason domain.TerminationReason) bool {
	h.mu.Lock()
	if h.fired || len(h.subs) == 0 {
		h.mu.Unlock()
		return false
	}
	h.fired = true
	subs := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	v := Violation{Reason: reason, At: h.now()}
	h.mu.Unlock()

	for _, sub := range subs {
		h.mu.Lock()
		removed := sub.removed
		h.mu.Unlock()
		if !removed {
			sub.fn(v)
		}
	}
	return true
}

// Fired reports whether a violation has been delivered.
func (h *Hub) Fired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
