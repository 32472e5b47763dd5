package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/infra/memory"
	"fullscreen-quiz-service/internal/integrity"
	"github.com/sirupsen/logrus"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	clock   *fakeClock
	store   *memory.Store
	persist *Persistence
	source  *memory.StaticSource
	monitor *integrity.Simulated
	log     *logrus.Logger
	user    domain.User
}

func newHarness() *harness {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := memory.NewStore(0)
	return &harness{
		clock:   newFakeClock(),
		store:   store,
		persist: NewPersistence(store, log),
		source:  memory.NewStaticSource(memory.SampleQuestions()),
		monitor: integrity.NewSimulated(),
		log:     log,
		user:    domain.User{Name: "Ada", Email: "ada@example.com"},
	}
}

func (h *harness) controller() *Controller {
	settings := DefaultSettings()
	settings.TickInterval = time.Hour
	return NewController(h.user, settings, ControllerDeps{
		Persistence: h.persist,
		Monitor:     h.monitor,
		Logger:      h.log,
		Now:         h.clock.Now,
	})
}

func (h *harness) started(t *testing.T) *Controller {
	t.Helper()
	c := h.controller()
	if err := c.Load(context.Background(), h.source); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func (h *harness) snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	snap, ok := h.persist.LoadSnapshot(context.Background(), h.user.Email)
	if !ok {
		t.Fatalf("expected persisted snapshot")
	}
	return snap
}

// tick advances the fake clock and lets the event loop apply the elapsed time.
func tick(t *testing.T, c *Controller, clock *fakeClock, d time.Duration) {
	t.Helper()
	clock.Add(d)
	if err := c.do(func() error { c.timer.Advance(); return nil }); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func TestLoadEntersActive(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	view := c.View()
	if view.Status != domain.StatusActive || view.CurrentQuestion != 1 || view.TotalQuestions != 15 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.TimeRemaining != 1800 || view.Visited != 1 || view.Unvisited != 14 {
		t.Fatalf("expected full budget and only Q1 visited, got remaining=%d visited=%d unvisited=%d", view.TimeRemaining, view.Visited, view.Unvisited)
	}
	snap := h.snapshot(t)
	if snap.CurrentQuestion != 1 || !snap.Questions[0].Visited || snap.SessionID != c.ID() {
		t.Fatalf("unexpected snapshot: current=%d session=%s", snap.CurrentQuestion, snap.SessionID)
	}
}

func TestNavigationBounds(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	if err := c.Previous(); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if got := c.View().CurrentQuestion; got != 1 {
		t.Fatalf("expected previous on Q1 to stay, got %d", got)
	}
	for i := 0; i < 20; i++ {
		if err := c.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if got := c.View().CurrentQuestion; got != 15 {
		t.Fatalf("expected next to stop at 15, got %d", got)
	}
	for _, n := range []int{0, 16, -1} {
		if err := c.JumpTo(n); !errors.Is(err, domain.ErrQuestionOutOfRange) {
			t.Fatalf("jump %d: expected out of range, got %v", n, err)
		}
	}
	if got := c.View().CurrentQuestion; got != 15 {
		t.Fatalf("rejected jump moved the cursor to %d", got)
	}
	if err := c.JumpTo(3); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if got := h.snapshot(t).CurrentQuestion; got != 3 {
		t.Fatalf("expected persisted current 3, got %d", got)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	if err := c.SelectAnswer("Central Process Unit"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SelectAnswer("Central Processing Unit"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SelectAnswer("Not an option"); !errors.Is(err, domain.ErrUnknownOption) {
		t.Fatalf("expected unknown option, got %v", err)
	}

	q := h.snapshot(t).Questions[0]
	if q.UserAnswer == nil || *q.UserAnswer != "Central Processing Unit" {
		t.Fatalf("expected overwritten answer, got %v", q.UserAnswer)
	}
	if c.View().Answered != 1 {
		t.Fatalf("expected 1 answered, got %d", c.View().Answered)
	}
}

func TestExitFullscreenAfterJump(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	if err := c.SelectAnswer("Central Processing Unit"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.JumpTo(5); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !h.monitor.ExitFullscreen() {
		t.Fatalf("expected violation to be delivered")
	}

	result, ok := c.Result()
	if !ok {
		t.Fatalf("expected result after violation")
	}
	if !result.Terminated || result.TerminationReason != domain.ReasonExitedFullscreen {
		t.Fatalf("unexpected termination: %+v", result)
	}
	if result.Score != 1 || result.TotalQuestions != 15 || result.Accuracy != 7 {
		t.Fatalf("unexpected score: %d/%d %d%%", result.Score, result.TotalQuestions, result.Accuracy)
	}
	if !result.Questions[0].Visited || !result.Questions[4].Visited || result.Questions[1].Visited {
		t.Fatalf("unexpected visited flags")
	}
	if _, ok := h.persist.LoadSnapshot(context.Background(), h.user.Email); ok {
		t.Fatalf("expected snapshot cleared")
	}
	stored, err := h.persist.LoadResult(context.Background(), h.user.Email)
	if err != nil || stored.SessionID != result.SessionID {
		t.Fatalf("expected stored result, got %v", err)
	}
	if h.monitor.Subscribers() != 0 {
		t.Fatalf("expected monitor unsubscribed")
	}
}

func TestTerminationAfterSubmitIsIgnored(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	result, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Terminated || result.TerminationReason != "" {
		t.Fatalf("expected voluntary submission, got %+v", result)
	}
	<-c.Done()

	if err := c.Terminate(domain.ReasonPageUnload); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if h.monitor.HidePage() {
		t.Fatalf("expected no subscriber after submit")
	}
	if _, err := c.Submit(); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected second submit to fail, got %v", err)
	}
	stored, _ := h.persist.LoadResult(context.Background(), h.user.Email)
	if stored.Terminated {
		t.Fatalf("stored result changed after submit")
	}
}

func TestTimeExpiryTerminates(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	tick(t, c, h.clock, 10*time.Minute)
	if got := c.View().TimeRemaining; got != 1200 {
		t.Fatalf("expected 1200s left, got %d", got)
	}
	if got := h.snapshot(t).TimeRemaining; got != 1200 {
		t.Fatalf("expected tick to persist remaining time, got %d", got)
	}

	h.clock.Add(20 * time.Minute)
	_ = c.do(func() error { c.timer.Advance(); return nil })
	<-c.Done()

	view := c.View()
	if view.Status != domain.StatusTerminated || view.TerminationReason != domain.ReasonTimeExpired {
		t.Fatalf("expected TimeExpired, got %s %s", view.Status, view.TerminationReason)
	}
	if view.TimeRemaining != 0 || view.Result.TimeSpent != 1800 {
		t.Fatalf("expected remaining 0 and spent 1800, got %d %d", view.TimeRemaining, view.Result.TimeSpent)
	}
}

func TestSimultaneousTerminationsPickHighestPriority(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	_ = c.do(func() error {
		c.pending = append(c.pending, domain.ReasonPageUnload, domain.ReasonSwitchedTabsOrWindows)
		c.expired = true
		return nil
	})
	<-c.Done()

	if got := c.View().TerminationReason; got != domain.ReasonSwitchedTabsOrWindows {
		t.Fatalf("expected SwitchedTabsOrWindows, got %s", got)
	}
}

func TestTerminateRejectsUnknownReason(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	if err := c.Terminate("Bored"); !errors.Is(err, domain.ErrUnknownReason) {
		t.Fatalf("expected ErrUnknownReason, got %v", err)
	}
	if c.View().Status != domain.StatusActive {
		t.Fatalf("expected session to stay active")
	}

	if err := c.Terminate(domain.ReasonPageUnload); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	<-c.Done()
	if got := c.View().TerminationReason; got != domain.ReasonPageUnload {
		t.Fatalf("expected PageUnload, got %s", got)
	}
}

func TestGoHomeTerminates(t *testing.T) {
	h := newHarness()
	c := h.started(t)

	result, err := c.GoHome()
	if err != nil {
		t.Fatalf("go home: %v", err)
	}
	if result.TerminationReason != domain.ReasonUserChoseToGoHome {
		t.Fatalf("unexpected reason %s", result.TerminationReason)
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	h := newHarness()
	questions, _ := h.source.FetchBatch(context.Background(), 15)
	answer := "1991"
	questions[4].UserAnswer = &answer
	questions[0].Visited = true
	questions[4].Visited = true
	snap := domain.Snapshot{
		SessionID:       "resumed-session",
		Questions:       questions,
		CurrentQuestion: 5,
		TimeRemaining:   900,
		TimeSpent:       900,
		StartedAt:       h.clock.Now().Add(-20 * time.Minute),
		Timestamp:       h.clock.Now().Add(-time.Minute),
		User:            h.user,
	}
	if err := h.persist.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	calls := h.source.Calls()

	c := h.started(t)
	view := c.View()
	if h.source.Calls() != calls {
		t.Fatalf("expected no fetch on resume")
	}
	if c.ID() != "resumed-session" || view.CurrentQuestion != 5 || view.TimeRemaining != 900 || view.Answered != 1 {
		t.Fatalf("unexpected resumed view: id=%s current=%d remaining=%d answered=%d", c.ID(), view.CurrentQuestion, view.TimeRemaining, view.Answered)
	}
	if view.TimeSpent != 900 {
		t.Fatalf("expected spent time carried over, got %d", view.TimeSpent)
	}
}

func TestStaleOrCorruptSnapshotRefetches(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	stale := domain.Snapshot{
		Questions:       memory.SampleQuestions()[:2],
		CurrentQuestion: 2,
		StartedAt:       h.clock.Now().Add(-3 * time.Hour),
		User:            h.user,
	}
	if err := h.persist.SaveSnapshot(ctx, stale); err != nil {
		t.Fatalf("save: %v", err)
	}
	c := h.started(t)
	if c.View().TotalQuestions != 15 || h.source.Calls() != 1 {
		t.Fatalf("expected stale snapshot to be ignored")
	}
	c.Submit()

	if err := h.store.Save(ctx, progressKey(h.user.Email), []byte("{not json")); err != nil {
		t.Fatalf("save corrupt: %v", err)
	}
	c = h.started(t)
	if c.View().CurrentQuestion != 1 || h.source.Calls() != 2 {
		t.Fatalf("expected corrupt snapshot to be treated as absent")
	}
}

func TestResumedWithoutTimeExpires(t *testing.T) {
	h := newHarness()
	questions, _ := h.source.FetchBatch(context.Background(), 15)
	snap := domain.Snapshot{
		Questions:       questions,
		CurrentQuestion: 1,
		TimeRemaining:   0,
		TimeSpent:       1800,
		StartedAt:       h.clock.Now().Add(-40 * time.Minute),
		User:            h.user,
	}
	if err := h.persist.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	c := h.started(t)
	<-c.Done()
	if got := c.View().TerminationReason; got != domain.ReasonTimeExpired {
		t.Fatalf("expected TimeExpired, got %s", got)
	}
}

func TestLoadFailureStaysLoading(t *testing.T) {
	h := newHarness()
	h.source.FailWith(errors.New("provider down"))
	c := h.controller()

	if err := c.Load(context.Background(), h.source); err == nil {
		t.Fatalf("expected load error")
	}
	if c.View().Status != domain.StatusLoading {
		t.Fatalf("expected loading, got %s", c.View().Status)
	}
	if err := c.Next(); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected intents rejected while loading, got %v", err)
	}

	h.source.FailWith(nil)
	if err := c.Load(context.Background(), h.source); err != nil {
		t.Fatalf("retry load: %v", err)
	}
	if c.View().Status != domain.StatusActive {
		t.Fatalf("expected active after retry")
	}
}

func TestEmptyBatchIsAnError(t *testing.T) {
	h := newHarness()
	h.source = memory.NewStaticSource(nil)
	c := h.controller()
	if err := c.Load(context.Background(), h.source); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestSubscribeReceivesResultAndCloses(t *testing.T) {
	h := newHarness()
	c := h.started(t)
	updates, cancel := c.Subscribe()
	defer cancel()

	first := <-updates
	if first.Status != domain.StatusActive {
		t.Fatalf("expected current view first, got %s", first.Status)
	}
	if _, err := c.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var last View
	for v := range updates {
		last = v
	}
	if last.Result == nil || last.Status != domain.StatusSubmitted {
		t.Fatalf("expected final view with result, got %+v", last.Status)
	}
	if len(last.Questions[0].Options) != 4 {
		t.Fatalf("expected options in question view")
	}
}

func TestFresh(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		snap domain.Snapshot
		want bool
	}{
		{"recent start", domain.Snapshot{StartedAt: now.Add(-time.Hour)}, true},
		{"old start", domain.Snapshot{StartedAt: now.Add(-3 * time.Hour)}, false},
		{"timestamp fallback", domain.Snapshot{Timestamp: now.Add(-time.Minute)}, true},
		{"no time", domain.Snapshot{}, false},
	}
	for _, tc := range cases {
		if got := Fresh(tc.snap, 2*time.Hour, now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if !Fresh(domain.Snapshot{}, 0, now) {
		t.Fatalf("expected zero window to never expire")
	}
}
