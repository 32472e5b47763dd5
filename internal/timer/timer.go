package timer

import "time"

// Tick is delivered after every whole-second advance of the clock.
type Tick struct {
	Remaining int
	Spent     int
}

// Service is a countdown driven by wall-clock deltas rather than a decrement counter,
// so a delayed or throttled caller still observes real elapsed time.
//
// Service is not safe for concurrent use; the owner must serialize calls.
type Service struct {
	now func() time.Time

	budget    int
	remaining int
	spentBase int
	startedAt time.Time
	lastTick  time.Time
	endedAt   time.Time
	running   bool
	expired   bool

	onTick   func(Tick)
	onExpire func()
}

func New() *Service {
	return NewWithClock(time.Now)
}

// NewWithClock allows deterministic time in tests.
func NewWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

// Start arms the countdown with budget seconds. Either callback may be nil.
func (s *Service) Start(budget int, onTick func(Tick), onExpire func()) {
	now := s.now()
	s.budget = budget
	s.remaining = budget
	s.spentBase = 0
	s.startedAt = now
	s.lastTick = now
	s.endedAt = time.Time{}
	s.onTick = onTick
	s.onExpire = onExpire
	s.expired = false
	s.running = budget > 0
	if budget <= 0 {
		s.remaining = 0
		s.expire()
	}
}

// Restore carries remaining and already spent seconds over from a resumed session.
// The budget used for status thresholds is left unchanged.
func (s *Service) Restore(remaining, spent int) {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > s.budget {
		remaining = s.budget
	}
	if spent < 0 {
		spent = 0
	}
	s.remaining = remaining
	s.spentBase = spent
}

// Advance applies the whole seconds elapsed since the last tick. Fractions carry over.
func (s *Service) Advance() {
	if !s.running {
		return
	}
	now := s.now()
	elapsed := int(now.Sub(s.lastTick) / time.Second)
	if elapsed <= 0 {
		return
	}
	s.lastTick = s.lastTick.Add(time.Duration(elapsed) * time.Second)
	s.remaining -= elapsed
	if s.remaining <= 0 {
		s.remaining = 0
		s.running = false
		s.endedAt = now
	}
	if s.onTick != nil {
		s.onTick(Tick{Remaining: s.remaining, Spent: s.Spent()})
	}
	if !s.running {
		s.expire()
	}
}

func (s *Service) expire() {
	if s.endedAt.IsZero() {
		s.endedAt = s.now()
	}
	s.running = false
	if s.expired {
		return
	}
	s.expired = true
	if s.onExpire != nil {
		s.onExpire()
	}
}

// Stop halts the countdown. Safe to call repeatedly.
func (s *Service) Stop() {
	if s.running {
		s.endedAt = s.now()
	}
	s.running = false
}

// Reset refills the countdown to budget seconds and re-arms it, also after Stop or expiry.
// Time spent so far is kept; a stopped interval is not counted.
func (s *Service) Reset(budget int) {
	now := s.now()
	s.spentBase = s.Spent()
	s.startedAt = now
	s.lastTick = now
	s.endedAt = time.Time{}
	s.budget = budget
	s.remaining = budget
	s.expired = false
	s.running = budget > 0
	if budget <= 0 {
		s.remaining = 0
		s.expire()
	}
}

// Remaining returns the seconds left.
func (s *Service) Remaining() int { return s.remaining }

// Budget returns the configured budget in seconds.
func (s *Service) Budget() int { return s.budget }

// Running reports whether the countdown is live.
func (s *Service) Running() bool { return s.running }

// Spent returns whole seconds since Start plus any restored time.
func (s *Service) Spent() int {
	if s.startedAt.IsZero() {
		return s.spentBase
	}
	end := s.now()
	if !s.endedAt.IsZero() {
		end = s.endedAt
	}
	return s.spentBase + int(end.Sub(s.startedAt)/time.Second)
}
