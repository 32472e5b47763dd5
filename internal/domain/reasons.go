package domain

// TerminationReason explains why a session was forced to end.
type TerminationReason string

const (
	ReasonExitedFullscreen      TerminationReason = "ExitedFullscreen"
	ReasonSwitchedTabsOrWindows TerminationReason = "SwitchedTabsOrWindows"
	ReasonAttemptedNavigation   TerminationReason = "AttemptedNavigation"
	ReasonPageUnload            TerminationReason = "PageUnload"
	ReasonTimeExpired           TerminationReason = "TimeExpired"
	ReasonUserChoseToGoHome     TerminationReason = "UserChoseToGoHome"
)

// reasonPriority lists reasons from most to least important.
var reasonPriority = []TerminationReason{
	ReasonExitedFullscreen,
	ReasonSwitchedTabsOrWindows,
	ReasonAttemptedNavigation,
	ReasonPageUnload,
	ReasonTimeExpired,
	ReasonUserChoseToGoHome,
}

// Priority returns the rank of r; lower wins. Unknown reasons rank last.
func (r TerminationReason) Priority() int {
	for i, candidate := range reasonPriority {
		if candidate == r {
			return i
		}
	}
	return len(reasonPriority)
}

// Valid reports whether r is one of the known reasons.
func (r TerminationReason) Valid() bool {
	return r.Priority() < len(reasonPriority)
}

// Describe returns the human readable message shown on the results screen.
func (r TerminationReason) Describe() string {
	switch r {
	case ReasonExitedFullscreen:
		return "Exited fullscreen mode"
	case ReasonSwitchedTabsOrWindows:
		return "Switched tabs/windows during quiz"
	case ReasonAttemptedNavigation:
		return "Attempted navigation during quiz"
	case ReasonPageUnload:
		return "Page refresh/close during quiz"
	case ReasonTimeExpired:
		return "Time is up"
	case ReasonUserChoseToGoHome:
		return "User chose to go home"
	}
	return string(r)
}

// HighestPriority picks the winning reason among near-simultaneous ones.
func HighestPriority(reasons ...TerminationReason) (TerminationReason, bool) {
	var best TerminationReason
	found := false
	for _, r := range reasons {
		if !r.Valid() {
			continue
		}
		if !found || r.Priority() < best.Priority() {
			best = r
			found = true
		}
	}
	return best, found
}
