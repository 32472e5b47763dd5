package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fullscreen-quiz-service/internal/app"
	"fullscreen-quiz-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// API serves the REST side of the quiz: registration, resume decisions and results.
type API struct {
	service *app.QuizService
	log     logrus.FieldLogger
}

func NewAPI(service *app.QuizService, log logrus.FieldLogger) *API {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{service: service, log: log}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reg, err := a.service.Register(r.Context(), req.Name, req.Email)
	switch {
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, domain.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		a.log.WithError(err).Error("register quiz taker")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// DiscardProgress declines resumption of an unfinished quiz.
func (a *API) DiscardProgress(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	if _, running := a.service.Session(email); running {
		writeError(w, http.StatusConflict, domain.ErrSessionActive.Error())
		return
	}
	if err := a.service.Discard(r.Context(), email); err != nil {
		a.log.WithError(err).Error("discard quiz progress")
		writeError(w, http.StatusInternalServerError, "discard failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Results(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	review, err := a.service.Result(r.Context(), email)
	switch {
	case errors.Is(err, domain.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		a.log.WithError(err).Error("load quiz result")
		writeError(w, http.StatusInternalServerError, "result unavailable")
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (a *API) History(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := a.service.History(r.Context(), email, limit)
	switch {
	case errors.Is(err, domain.ErrHistoryUnavailable):
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	case err != nil:
		a.log.WithError(err).Error("load quiz history")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if results == nil {
		results = []domain.QuizResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return "", false
	}
	return email, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
