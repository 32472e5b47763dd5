package app

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/integrity"
	"fullscreen-quiz-service/internal/scoring"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Registration is returned once a quiz taker's details are accepted.
type Registration struct {
	User      domain.User `json:"user"`
	Resumable bool        `json:"resumable"`
	// Set when Resumable.
	CurrentQuestion int       `json:"currentQuestion,omitempty"`
	TimeRemaining   int       `json:"timeRemaining,omitempty"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
}

// QuizService contains the quiz use cases: registration, starting or resuming a session,
// and reading results.
type QuizService struct {
	persist  *Persistence
	source   QuestionSource
	archive  ResultArchive
	settings Settings
	log      logrus.FieldLogger
	now      func() time.Time
	sf       singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewQuizService(persist *Persistence, source QuestionSource, archive ResultArchive, settings Settings, log logrus.FieldLogger) *QuizService {
	return NewQuizServiceWithClock(persist, source, archive, settings, log, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(persist *Persistence, source QuestionSource, archive ResultArchive, settings Settings, log logrus.FieldLogger, now func() time.Time) *QuizService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuizService{
		persist:  persist,
		source:   source,
		archive:  archive,
		settings: settings,
		log:      log,
		now:      now,
		sessions: make(map[string]*Controller),
	}
}

// ValidateUser trims and checks registration details.
func ValidateUser(name, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return domain.User{}, domain.ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return domain.User{}, domain.ErrInvalidName
	}
	return domain.User{Name: name, Email: email}, nil
}

// Register validates and stores the quiz taker and reports whether an unfinished quiz
// can be resumed. Stale or unreadable progress is cleared.
func (s *QuizService) Register(ctx context.Context, name, email string) (Registration, error) {
	user, err := ValidateUser(name, email)
	if err != nil {
		return Registration{}, err
	}
	if err := s.persist.SaveUser(ctx, user); err != nil {
		return Registration{}, err
	}

	reg := Registration{User: user}
	snap, ok := s.persist.LoadSnapshot(ctx, user.Email)
	switch {
	case ok && Fresh(snap, s.settings.ResumeWindow, s.now()):
		reg.Resumable = true
		reg.CurrentQuestion = snap.CurrentQuestion
		reg.TimeRemaining = snap.TimeRemaining
		reg.StartedAt = snap.StartedAt
	default:
		if err := s.persist.ClearSnapshot(ctx, user.Email); err != nil {
			s.log.WithError(err).WithField("email", user.Email).Warn("clear stale quiz progress")
		}
	}
	return reg, nil
}

// Discard drops unfinished progress so the next Begin fetches a new batch.
func (s *QuizService) Discard(ctx context.Context, email string) error {
	return s.persist.ClearSnapshot(ctx, email)
}

// Begin acknowledges the pre-quiz warning and starts (or resumes) the user's session,
// watched by monitor. Concurrent calls for one user share a single Loading phase; only the
// caller whose monitor won gets the controller, the others get domain.ErrSessionActive.
func (s *QuizService) Begin(ctx context.Context, email string, monitor integrity.Monitor) (*Controller, error) {
	key := UserKey(email)
	if _, ok := s.Session(key); ok {
		return nil, domain.ErrSessionActive
	}
	if monitor == nil {
		monitor = integrity.NewSimulated()
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if c, ok := s.Session(key); ok {
			return c, nil
		}
		user, err := s.persist.LoadUser(ctx, key)
		if err != nil {
			return nil, err
		}
		c := NewController(user, s.settings, ControllerDeps{
			Persistence: s.persist,
			Archive:     s.archive,
			Monitor:     monitor,
			Logger:      s.log,
			Now:         s.now,
		})
		if err := c.Load(ctx, s.source); err != nil {
			return nil, err
		}
		s.track(key, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	c := v.(*Controller)
	if c.monitor != monitor {
		return nil, domain.ErrSessionActive
	}
	return c, nil
}

func (s *QuizService) track(key string, c *Controller) {
	s.mu.Lock()
	s.sessions[key] = c
	s.mu.Unlock()

	go func() {
		<-c.Done()
		s.mu.Lock()
		if s.sessions[key] == c {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
	}()
}

// Session returns the user's running session.
func (s *QuizService) Session(email string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[UserKey(email)]
	if !ok {
		return nil, false
	}
	select {
	case <-c.Done():
		return nil, false
	default:
	}
	return c, true
}

// Result returns the review of the user's last finished quiz and clears in-progress state.
func (s *QuizService) Result(ctx context.Context, email string) (scoring.Review, error) {
	result, err := s.persist.LoadResult(ctx, email)
	if err != nil {
		return scoring.Review{}, err
	}
	if err := s.persist.ClearSnapshot(ctx, email); err != nil {
		s.log.WithError(err).WithField("email", email).Warn("clear quiz progress")
	}
	return scoring.BuildReview(result, nil), nil
}

// History lists the user's archived results, newest first.
func (s *QuizService) History(ctx context.Context, email string, limit int) ([]domain.QuizResult, error) {
	h, ok := s.archive.(ResultHistory)
	if !ok {
		return nil, domain.ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = 10
	}
	return h.History(ctx, UserKey(email), limit)
}
