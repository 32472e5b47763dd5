package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fullscreen-quiz-service/internal/app"
	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/source"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.QuizService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log logrus.FieldLogger) *WSHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Answer string `json:"answer"`
}

type jumpPayload struct {
	Question int `json:"question"`
}

type fullscreenPayload struct {
	Active bool `json:"active"`
}

type visibilityPayload struct {
	Hidden bool `json:"hidden"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

type historyPayload struct {
	Path string `json:"path"`
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: errorCode(err)}}
}

func errorCode(err error) string {
	var netErr *source.NetworkError
	var provErr *source.ProviderError
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, domain.ErrSessionActive):
		return "session_active"
	case errors.Is(err, domain.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrUnknownOption):
		return "unknown_option"
	case errors.Is(err, domain.ErrQuestionOutOfRange):
		return "out_of_range"
	case errors.Is(err, errInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, errUnsupportedMessage):
		return "unsupported"
	case errors.Is(err, domain.ErrNoQuestions):
		return "no_questions"
	case errors.As(err, &provErr):
		return "provider_error"
	case errors.As(err, &netErr):
		return "network_error"
	default:
		return "internal"
	}
}

// retryable reports whether starting the quiz may succeed on a second attempt.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrNotRegistered) && !errors.Is(err, domain.ErrSessionActive)
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session over the socket.
// Connecting acknowledges the pre-quiz warning; closing the socket counts as leaving the page.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	log := h.log.WithField("email", email)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go writeLoop(conn, send, writerDone, log)
	defer func() {
		close(send)
		<-writerDone
	}()

	// Only the reader below triggers SuppressBackNavigation, so send is still open here.
	monitor := newSocketMonitor(func() {
		send <- outboundMessage[any]{Type: "history", Payload: historyPayload{Path: "/quiz"}}
	})

	controller, ok := h.begin(r.Context(), conn, email, monitor, send)
	if !ok {
		return
	}

	updates, cancel := controller.Subscribe()
	closeSignals := make(chan struct{})
	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for view := range updates {
			msgs := []outboundMessage[any]{{Type: "session", Payload: view}}
			if view.Result != nil {
				msgs = append(msgs, outboundMessage[any]{Type: "result", Payload: view.Result})
			}
			for _, msg := range msgs {
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if monitor.handle(inbound) {
			continue
		}
		if err := dispatch(controller, inbound); err != nil {
			send <- errorMessage(err)
		}
	}

	select {
	case <-controller.Done():
	default:
		log.Info("socket closed during quiz")
		monitor.Report(domain.ReasonPageUnload)
	}

	close(closeSignals)
	cancel()
	<-updatesDone
}

// begin starts or resumes the session. Loading failures are reported to the client, which
// may answer with "retry" or "home".
func (h *WSHandler) begin(ctx context.Context, conn *websocket.Conn, email string, monitor *socketMonitor, send chan<- outboundMessage[any]) (*app.Controller, bool) {
	for {
		controller, err := h.service.Begin(ctx, email, monitor)
		if err == nil {
			return controller, true
		}
		h.log.WithError(err).WithField("email", email).Warn("start quiz session")
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{
			Message:   err.Error(),
			Code:      errorCode(err),
			Retryable: retryable(err),
		}}
		if !retryable(err) {
			return nil, false
		}

	wait:
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return nil, false
			}
			switch inbound.Type {
			case "retry":
				break wait
			case "home":
				return nil, false
			default:
				send <- errorMessage(domain.ErrSessionNotFound)
			}
		}
	}
}

var (
	errInvalidPayload     = errors.New("invalid payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)

func dispatch(c *app.Controller, in inboundMessage) error {
	switch in.Type {
	case "select":
		var p selectPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return c.SelectAnswer(p.Answer)
	case "next":
		return c.Next()
	case "previous":
		return c.Previous()
	case "jump":
		var p jumpPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return errInvalidPayload
		}
		return c.JumpTo(p.Question)
	case "submit":
		_, err := c.Submit()
		return err
	case "home":
		_, err := c.GoHome()
		if errors.Is(err, domain.ErrSessionClosed) {
			return nil
		}
		return err
	default:
		return errUnsupportedMessage
	}
}

// writeLoop is the only writer of conn. After a write error it keeps draining send so
// producers never block.
func writeLoop(conn *websocket.Conn, send <-chan outboundMessage[any], done chan<- struct{}, log logrus.FieldLogger) {
	defer close(done)
	failed := false
	for msg := range send {
		if failed {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).Debug("ws write error")
			failed = true
		}
	}
}
