package memory

import (
	"context"
	"strings"
	"sync"

	"fullscreen-quiz-service/internal/domain"
)

// Archive keeps finished results in memory, for runs without Postgres.
type Archive struct {
	mu      sync.RWMutex
	results map[string][]domain.QuizResult
}

func NewArchive() *Archive {
	return &Archive{results: make(map[string][]domain.QuizResult)}
}

func (a *Archive) Archive(_ context.Context, result domain.QuizResult) error {
	key := strings.ToLower(result.User.Email)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.results[key] {
		if r.SessionID == result.SessionID {
			return nil
		}
	}
	a.results[key] = append(a.results[key], result)
	return nil
}

func (a *Archive) History(_ context.Context, email string, limit int) ([]domain.QuizResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	stored := a.results[strings.ToLower(email)]
	out := make([]domain.QuizResult, 0, len(stored))
	for i := len(stored) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, stored[i])
	}
	return out, nil
}
