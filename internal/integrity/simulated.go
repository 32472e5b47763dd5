package integrity

import (
	"sync/atomic"

	"fullscreen-quiz-service/internal/domain"
)

// Simulated is a headless Monitor driven by explicit calls, used by tests and tooling.
type Simulated struct {
	*Hub
	suppressed atomic.Int32
}

func NewSimulated() *Simulated {
	return &Simulated{Hub: NewHub()}
}

func (s *Simulated) ExitFullscreen() bool { return s.Report(domain.ReasonExitedFullscreen) }

func (s *Simulated) HidePage() bool { return s.Report(domain.ReasonSwitchedTabsOrWindows) }

// NavigateBack re-asserts the location first, so the back action stays a no-op even
// when the session has already ended.
func (s *Simulated) NavigateBack() bool {
	s.SuppressBackNavigation()
	return s.Report(domain.ReasonAttemptedNavigation)
}

func (s *Simulated) Unload() bool { return s.Report(domain.ReasonPageUnload) }

func (s *Simulated) SuppressBackNavigation() {
	s.suppressed.Add(1)
}

// Suppressed counts SuppressBackNavigation calls.
func (s *Simulated) Suppressed() int {
	return int(s.suppressed.Load())
}
