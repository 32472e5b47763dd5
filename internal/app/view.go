package app

import (
	"fullscreen-quiz-service/internal/domain"
	"fullscreen-quiz-service/internal/timer"
)

// ID returns the session id.
func (c *Controller) ID() string {
	return c.View().SessionID
}

// User returns the quiz taker.
func (c *Controller) User() domain.User {
	return c.user
}

// View returns the latest published state.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Result returns the final result once the session left Active.
func (c *Controller) Result() (domain.QuizResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.view.Result == nil {
		return domain.QuizResult{}, false
	}
	return *c.view.Result, true
}

// Done is closed after the session left Active and all subscribers were released.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Subscribe returns a channel of views, starting with the current one. The channel is
// closed when the session ends; the cancel func releases it early.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	c.mu.Lock()
	ch <- c.view
	if c.closed {
		close(ch)
		c.mu.Unlock()
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) publish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.buildView(nil)
	c.broadcastLocked()
}

func (c *Controller) publishResult(result domain.QuizResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.buildView(&result)
	c.broadcastLocked()
}

func (c *Controller) broadcastLocked() {
	for ch := range c.subscribers {
		select {
		case ch <- c.view:
		default:
			// drop the stale view so a slow reader never blocks the loop
			select {
			case <-ch:
			default:
			}
			ch <- c.view
		}
	}
}

func (c *Controller) buildView(result *domain.QuizResult) View {
	view := View{
		SessionID:       c.id,
		Status:          c.status,
		User:            c.user,
		Questions:       make([]QuestionView, 0, len(c.questions)),
		CurrentQuestion: c.current,
		TotalQuestions:  len(c.questions),
		TimeRemaining:   c.timer.Remaining(),
		TimeSpent:       c.timer.Spent(),
		TimeStatus:      timer.StatusOf(c.timer.Remaining(), c.timer.Budget()),
		Result:          result,
	}
	if result != nil {
		view.TerminationReason = result.TerminationReason
	}
	for _, q := range c.questions {
		var answer *string
		if q.UserAnswer != nil {
			a := *q.UserAnswer
			answer = &a
		}
		view.Questions = append(view.Questions, QuestionView{
			ID:         q.ID,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Category:   q.Category,
			Prompt:     q.Prompt,
			Options:    c.options[q.ID],
			UserAnswer: answer,
			Visited:    q.Visited,
		})
		switch {
		case q.Answered():
			view.Answered++
		case q.Visited:
			view.Visited++
		default:
			view.Unvisited++
		}
	}
	return view
}
