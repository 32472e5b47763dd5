package http

import (
	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/integrity"
)

// socketMonitor turns browser environment messages received over the websocket into
// integrity violations.
type socketMonitor struct {
	*integrity.Hub
	history func()
}

func newSocketMonitor(history func()) *socketMonitor {
	return &socketMonitor{Hub: integrity.NewHub(), history: history}
}

// SuppressBackNavigation asks the client to push its current location again.
func (m *socketMonitor) SuppressBackNavigation() {
	if m.history != nil {
		m.history()
	}
}

// handle applies an environment message. It blocks until the session is finalized when the
// message ends the quiz. Unknown types report false.
func (m *socketMonitor) handle(in inboundMessage) (known bool) {
	switch in.Type {
	case "fullscreen":
		var p fullscreenPayload
		if decodePayload(in.Payload, &p) == nil && !p.Active {
			m.Report(domain.ReasonExitedFullscreen)
		}
	case "visibility":
		var p visibilityPayload
		if decodePayload(in.Payload, &p) == nil && p.Hidden {
			m.Report(domain.ReasonSwitchedTabsOrWindows)
		}
	case "popstate":
		m.SuppressBackNavigation()
		m.Report(domain.ReasonAttemptedNavigation)
	case "unload":
		m.Report(domain.ReasonPageUnload)
	default:
		return false
	}
	return true
}
