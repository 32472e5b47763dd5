package domain

import "time"

// Question types reported by the trivia provider.
const (
	TypeBoolean  = "boolean"
	TypeMultiple = "multiple"
)

// Question is a single trivia question. Only the controller mutates UserAnswer and Visited.
type Question struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	Difficulty    string   `json:"difficulty"`
	Category      string   `json:"category"`
	Prompt        string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Distractors   []string `json:"incorrect_answers"`
	UserAnswer    *string  `json:"userAnswer"`
	Visited       bool     `json:"visited"`
}

// Answered reports whether the user picked an option.
func (q Question) Answered() bool {
	return q.UserAnswer != nil
}

// Correct reports whether the picked option equals the correct answer.
func (q Question) Correct() bool {
	return q.UserAnswer != nil && *q.UserAnswer == q.CorrectAnswer
}

// HasOption reports whether text is the correct answer or one of the distractors.
func (q Question) HasOption(text string) bool {
	if text == q.CorrectAnswer {
		return true
	}
	for _, d := range q.Distractors {
		if d == text {
			return true
		}
	}
	return false
}

// CloneQuestions deep-copies a question list so callers cannot alias session state.
func CloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q
		out[i].Distractors = append([]string(nil), q.Distractors...)
		if q.UserAnswer != nil {
			answer := *q.UserAnswer
			out[i].UserAnswer = &answer
		}
	}
	return out
}

// User is the identity captured at registration.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusLoading    Status = "loading"
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
	StatusSubmitted  Status = "submitted"
)

// Finished reports whether the status is absorbing.
func (s Status) Finished() bool {
	return s == StatusTerminated || s == StatusSubmitted
}

// Snapshot is the persisted form of an in-progress session.
type Snapshot struct {
	SessionID       string     `json:"sessionId"`
	Questions       []Question `json:"questions"`
	CurrentQuestion int        `json:"currentQuestion"`
	TimeRemaining   int        `json:"timeRemaining"`
	TimeSpent       int        `json:"timeSpent"`
	StartedAt       time.Time  `json:"startedAt"`
	Timestamp       time.Time  `json:"timestamp"`
	User            User       `json:"user"`
}

// QuizResult is the immutable outcome of a session.
type QuizResult struct {
	SessionID         string            `json:"sessionId"`
	Questions         []Question        `json:"questions"`
	Score             int               `json:"score"`
	TotalQuestions    int               `json:"totalQuestions"`
	Accuracy          int               `json:"accuracy"`
	TimeSpent         int               `json:"timeSpent"`
	CompletedAt       time.Time         `json:"completedAt"`
	Terminated        bool              `json:"terminated"`
	TerminationReason TerminationReason `json:"terminationReason,omitempty"`
	User              User              `json:"user"`
}
