package app

import (
	"context"
	"sync"
	"time"

	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/integrity"
	"fullscreen-quiz-service/internal/scoring"
	"fullscreen-quiz-service/internal/timer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// QuestionSource fetches a fresh batch of questions.
type QuestionSource interface {
	FetchBatch(ctx context.Context, count int) ([]domain.Question, error)
}

// Settings tune quiz sessions.
type Settings struct {
	Questions    int
	Budget       time.Duration
	ResumeWindow time.Duration
	TickInterval time.Duration
}

// DefaultSettings returns the 15 question, 30 minute quiz.
func DefaultSettings() Settings {
	return Settings{
		Questions:    15,
		Budget:       30 * time.Minute,
		ResumeWindow: 2 * time.Hour,
		TickInterval: time.Second,
	}
}

// QuestionView is a question as shown to the quiz taker; the correct answer is withheld.
type QuestionView struct {
	ID         int      `json:"id"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	Prompt     string   `json:"question"`
	Options    []string `json:"options"`
	UserAnswer *string  `json:"userAnswer"`
	Visited    bool     `json:"visited"`
}

// View is the renderable state of a session.
type View struct {
	SessionID         string                   `json:"sessionId"`
	Status            domain.Status            `json:"status"`
	TerminationReason domain.TerminationReason `json:"terminationReason,omitempty"`
	User              domain.User              `json:"user"`
	Questions         []QuestionView           `json:"questions"`
	CurrentQuestion   int                      `json:"currentQuestion"`
	TotalQuestions    int                      `json:"totalQuestions"`
	TimeRemaining     int                      `json:"timeRemaining"`
	TimeSpent         int                      `json:"timeSpent"`
	TimeStatus        timer.Status             `json:"timeStatus"`
	Answered          int                      `json:"answered"`
	Visited           int                      `json:"visited"`
	Unvisited         int                      `json:"unvisited"`
	Result            *domain.QuizResult       `json:"result,omitempty"`
}

type event struct {
	apply func() error
	done  chan error
}

// Controller is the state machine of one quiz session: Loading -> Active -> Terminated|Submitted.
// Once Active, every mutation (intents, timer ticks, integrity violations) runs on a single
// event loop goroutine, so session state is never mutated concurrently.
type Controller struct {
	id       string
	user     domain.User
	settings Settings
	persist  *Persistence
	archive  ResultArchive
	monitor  integrity.Monitor
	timer    *timer.Service
	now      func() time.Time
	log      logrus.FieldLogger

	loadMu sync.Mutex
	loaded bool

	// Owned by Load until the loop starts, then by the loop.
	questions   []domain.Question
	options     map[int][]string
	current     int
	status      domain.Status
	startedAt   time.Time
	expired     bool
	pending     []domain.TerminationReason
	unsubscribe func()

	events     chan event
	violations chan integrity.Violation
	done       chan struct{}

	mu          sync.RWMutex
	view        View
	closed      bool
	subscribers map[chan View]struct{}
}

// ControllerDeps bundles collaborators of a Controller.
type ControllerDeps struct {
	Persistence *Persistence
	Archive     ResultArchive
	Monitor     integrity.Monitor
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

// NewController creates a session in the Loading state.
func NewController(user domain.User, settings Settings, deps ControllerDeps) *Controller {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	monitor := deps.Monitor
	if monitor == nil {
		monitor = integrity.NewSimulated()
	}
	if settings.TickInterval <= 0 {
		settings.TickInterval = time.Second
	}
	id := uuid.NewString()
	c := &Controller{
		id:          id,
		user:        user,
		settings:    settings,
		persist:     deps.Persistence,
		archive:     deps.Archive,
		monitor:     monitor,
		timer:       timer.NewWithClock(now),
		now:         now,
		log:         log.WithFields(logrus.Fields{"session": id, "email": user.Email}),
		status:      domain.StatusLoading,
		events:      make(chan event),
		violations:  make(chan integrity.Violation, 8),
		done:        make(chan struct{}),
		subscribers: make(map[chan View]struct{}),
	}
	c.view = View{SessionID: id, Status: domain.StatusLoading, User: user}
	return c
}

// Load resumes a fresh persisted snapshot or fetches a new batch, then enters Active.
// On failure the session stays Loading and Load may be retried.
func (c *Controller) Load(ctx context.Context, source QuestionSource) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loaded {
		return nil
	}

	snap, resumed := c.persist.LoadSnapshot(ctx, c.user.Email)
	if resumed && !Fresh(snap, c.settings.ResumeWindow, c.now()) {
		resumed = false
	}

	if resumed {
		c.questions = domain.CloneQuestions(snap.Questions)
		c.current = clamp(snap.CurrentQuestion, 1, len(c.questions))
		c.startedAt = snap.StartedAt
		if c.startedAt.IsZero() {
			c.startedAt = c.now()
		}
		if snap.SessionID != "" {
			c.id = snap.SessionID
			c.log = c.log.WithField("session", c.id)
		}
		c.log.WithField("question", c.current).Info("resuming quiz session")
	} else {
		questions, err := source.FetchBatch(ctx, c.settings.Questions)
		if err != nil {
			c.log.WithError(err).Warn("fetch questions")
			return err
		}
		if len(questions) == 0 {
			return domain.ErrNoQuestions
		}
		c.questions = questions
		c.current = 1
		c.startedAt = c.now()
		c.log.WithField("questions", len(questions)).Info("starting quiz session")
	}
	c.questions[c.current-1].Visited = true

	c.options = make(map[int][]string, len(c.questions))
	for _, q := range c.questions {
		c.options[q.ID] = scoring.Options(q, nil)
	}

	c.status = domain.StatusActive
	c.timer.Start(int(c.settings.Budget/time.Second), c.onTick, c.onExpire)
	if resumed {
		c.timer.Restore(snap.TimeRemaining, snap.TimeSpent)
		if c.timer.Remaining() == 0 {
			c.expired = true
		}
	}
	c.unsubscribe = c.monitor.Subscribe(c.onViolation)

	c.persistSnapshot()
	c.publish()
	c.loaded = true
	go c.run()
	return nil
}

// Fresh reports whether snap is young enough to resume. A non-positive window never expires.
func Fresh(snap domain.Snapshot, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return true
	}
	ref := snap.StartedAt
	if ref.IsZero() {
		ref = snap.Timestamp
	}
	if ref.IsZero() {
		return false
	}
	return now.Sub(ref) < window
}

func (c *Controller) run() {
	ticker := time.NewTicker(c.settings.TickInterval)
	defer ticker.Stop()

	c.settle()
	for !c.status.Finished() {
		select {
		case ev := <-c.events:
			err := ev.apply()
			c.settle()
			ev.done <- err
		case <-ticker.C:
			c.timer.Advance()
			c.settle()
		case v := <-c.violations:
			c.pending = append(c.pending, v.Reason)
			c.settle()
		}
	}
	c.shutdown()
}

// settle ends the session if any termination is pending, picking the highest priority
// among violations that arrived together.
func (c *Controller) settle() {
drain:
	for {
		select {
		case v := <-c.violations:
			c.pending = append(c.pending, v.Reason)
		default:
			break drain
		}
	}
	if c.expired {
		c.pending = append(c.pending, domain.ReasonTimeExpired)
		c.expired = false
	}
	if len(c.pending) == 0 {
		return
	}
	reason, ok := domain.HighestPriority(c.pending...)
	c.pending = nil
	if ok && c.status == domain.StatusActive {
		c.finish(domain.StatusTerminated, reason)
	}
}

func (c *Controller) onTick(timer.Tick) {
	c.persistSnapshot()
	c.publish()
}

func (c *Controller) onExpire() {
	c.expired = true
}

// onViolation runs on the monitor's goroutine. It blocks until the session has been
// finalized and persisted, which is what makes PageUnload handling synchronous.
func (c *Controller) onViolation(v integrity.Violation) {
	select {
	case c.violations <- v:
	default:
	}
	<-c.done
}

func (c *Controller) do(fn func() error) error {
	if c.View().Status == domain.StatusLoading {
		return domain.ErrSessionNotFound
	}
	ev := event{apply: fn, done: make(chan error, 1)}
	select {
	case c.events <- ev:
	case <-c.done:
		return domain.ErrSessionClosed
	}
	return <-ev.done
}

// SelectAnswer records text as the answer to the current question, replacing any earlier one.
func (c *Controller) SelectAnswer(text string) error {
	return c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		q := &c.questions[c.current-1]
		if !q.HasOption(text) {
			return domain.ErrUnknownOption
		}
		answer := text
		q.UserAnswer = &answer
		c.commit()
		return nil
	})
}

// Next moves forward one question; a no-op on the last question.
func (c *Controller) Next() error {
	return c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		if c.current < len(c.questions) {
			c.moveTo(c.current + 1)
		}
		return nil
	})
}

// Previous moves back one question; a no-op on the first question.
func (c *Controller) Previous() error {
	return c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		if c.current > 1 {
			c.moveTo(c.current - 1)
		}
		return nil
	})
}

// JumpTo makes question n current. Out of range targets are rejected, not clamped.
func (c *Controller) JumpTo(n int) error {
	return c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		if n < 1 || n > len(c.questions) {
			return domain.ErrQuestionOutOfRange
		}
		c.moveTo(n)
		return nil
	})
}

// Submit ends the session voluntarily.
func (c *Controller) Submit() (domain.QuizResult, error) {
	return c.end(domain.StatusSubmitted, "")
}

// GoHome abandons the session.
func (c *Controller) GoHome() (domain.QuizResult, error) {
	return c.end(domain.StatusTerminated, domain.ReasonUserChoseToGoHome)
}

// Terminate delivers an external termination event. It has no effect once the session left Active.
func (c *Controller) Terminate(reason domain.TerminationReason) error {
	if !reason.Valid() {
		return domain.ErrUnknownReason
	}
	return c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		c.pending = append(c.pending, reason)
		return nil
	})
}

func (c *Controller) end(status domain.Status, reason domain.TerminationReason) (domain.QuizResult, error) {
	var result domain.QuizResult
	err := c.do(func() error {
		if c.status != domain.StatusActive {
			return domain.ErrSessionClosed
		}
		result = c.finish(status, reason)
		return nil
	})
	return result, err
}

func (c *Controller) moveTo(n int) {
	c.current = n
	c.questions[n-1].Visited = true
	c.commit()
}

func (c *Controller) commit() {
	c.persistSnapshot()
	c.publish()
}

// finish leaves Active: the timer and integrity subscription are torn down here, before
// anything else, so no callback is delivered afterwards.
func (c *Controller) finish(status domain.Status, reason domain.TerminationReason) domain.QuizResult {
	c.timer.Stop()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.status = status

	summary := scoring.Score(c.questions)
	result := domain.QuizResult{
		SessionID:         c.id,
		Questions:         domain.CloneQuestions(c.questions),
		Score:             summary.Score,
		TotalQuestions:    summary.TotalQuestions,
		Accuracy:          summary.Accuracy,
		TimeSpent:         c.timer.Spent(),
		CompletedAt:       c.now(),
		Terminated:        status == domain.StatusTerminated,
		TerminationReason: reason,
		User:              c.user,
	}

	ctx := context.Background()
	if err := c.persist.SaveResult(ctx, result); err != nil {
		c.log.WithError(err).Error("save quiz result")
	}
	if err := c.persist.ClearSnapshot(ctx, c.user.Email); err != nil {
		c.log.WithError(err).Warn("clear quiz progress")
	}
	if c.archive != nil {
		go c.archiveResult(result)
	}

	entry := c.log.WithFields(logrus.Fields{"status": status, "score": result.Score, "accuracy": result.Accuracy})
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}
	entry.Info("quiz session finished")

	c.publishResult(result)
	return result
}

func (c *Controller) archiveResult(result domain.QuizResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.archive.Archive(ctx, result); err != nil {
		c.log.WithError(err).Warn("archive quiz result")
	}
}

func (c *Controller) persistSnapshot() {
	snap := domain.Snapshot{
		SessionID:       c.id,
		Questions:       domain.CloneQuestions(c.questions),
		CurrentQuestion: c.current,
		TimeRemaining:   c.timer.Remaining(),
		TimeSpent:       c.timer.Spent(),
		StartedAt:       c.startedAt,
		Timestamp:       c.now(),
		User:            c.user,
	}
	if err := c.persist.SaveSnapshot(context.Background(), snap); err != nil {
		c.log.WithError(err).Warn("save quiz progress")
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.closed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.mu.Unlock()
	close(c.done)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
