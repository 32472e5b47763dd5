package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"fullscreen-quiz-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// Store is a durable key-value backend (memory, Redis, SQLite).
// Load returns domain.ErrRecordNotFound for missing keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// ResultArchive keeps a durable history of finished quizzes.
type ResultArchive interface {
	Archive(ctx context.Context, result domain.QuizResult) error
}

// ResultHistory is implemented by archives that can list past results, newest first.
type ResultHistory interface {
	History(ctx context.Context, email string, limit int) ([]domain.QuizResult, error)
}

// Persistence stores typed session records on top of a Store. Corrupt records read as absent.
type Persistence struct {
	store Store
	log   logrus.FieldLogger
}

func NewPersistence(store Store, log logrus.FieldLogger) *Persistence {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Persistence{store: store, log: log}
}

// UserKey normalizes an email into the per-user key suffix.
func UserKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func progressKey(email string) string { return "quiz:progress:" + UserKey(email) }
func resultKey(email string) string   { return "quiz:results:" + UserKey(email) }
func userKey(email string) string     { return "quiz:user:" + UserKey(email) }

// LoadSnapshot returns the in-progress snapshot. Missing, empty or corrupt snapshots report false.
func (p *Persistence) LoadSnapshot(ctx context.Context, email string) (domain.Snapshot, bool) {
	var snap domain.Snapshot
	if !p.loadJSON(ctx, progressKey(email), &snap) {
		return domain.Snapshot{}, false
	}
	if len(snap.Questions) == 0 {
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (p *Persistence) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	return p.saveJSON(ctx, progressKey(snap.User.Email), snap)
}

func (p *Persistence) ClearSnapshot(ctx context.Context, email string) error {
	return p.store.Clear(ctx, progressKey(email))
}

// LoadResult returns the stored result or domain.ErrResultNotFound.
func (p *Persistence) LoadResult(ctx context.Context, email string) (domain.QuizResult, error) {
	var result domain.QuizResult
	if !p.loadJSON(ctx, resultKey(email), &result) {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (p *Persistence) SaveResult(ctx context.Context, result domain.QuizResult) error {
	return p.saveJSON(ctx, resultKey(result.User.Email), result)
}

func (p *Persistence) ClearResult(ctx context.Context, email string) error {
	return p.store.Clear(ctx, resultKey(email))
}

// LoadUser returns the registered identity or domain.ErrNotRegistered.
func (p *Persistence) LoadUser(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	if !p.loadJSON(ctx, userKey(email), &user) {
		return domain.User{}, domain.ErrNotRegistered
	}
	return user, nil
}

func (p *Persistence) SaveUser(ctx context.Context, user domain.User) error {
	return p.saveJSON(ctx, userKey(user.Email), user)
}

func (p *Persistence) loadJSON(ctx context.Context, key string, out any) bool {
	raw, err := p.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			p.log.WithError(err).WithField("key", key).Warn("load persisted record")
		}
		return false
	}
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		p.log.WithError(err).WithField("key", key).Warn("discarding corrupt persisted record")
		return false
	}
	return true
}

func (p *Persistence) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.store.Save(ctx, key, data)
}
