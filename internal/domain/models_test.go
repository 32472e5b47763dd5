package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCloneQuestionsDoesNotAlias(t *testing.T) {
	answer := "B"
	orig := []Question{{ID: 1, CorrectAnswer: "A", Distractors: []string{"B", "C"}, UserAnswer: &answer}}
	clone := CloneQuestions(orig)

	*clone[0].UserAnswer = "C"
	clone[0].Distractors[0] = "Z"
	if *orig[0].UserAnswer != "B" || orig[0].Distractors[0] != "B" {
		t.Fatalf("clone aliases the original: %+v", orig[0])
	}
}

func TestQuestionAnswerState(t *testing.T) {
	q := Question{CorrectAnswer: "True", Distractors: []string{"False"}}
	if q.Answered() || q.Correct() {
		t.Fatalf("expected unanswered question")
	}
	if !q.HasOption("False") || q.HasOption("Maybe") {
		t.Fatalf("unexpected option check")
	}
	wrong := "False"
	q.UserAnswer = &wrong
	if !q.Answered() || q.Correct() {
		t.Fatalf("expected answered and incorrect")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	answer := "Go"
	started := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	snap := Snapshot{
		SessionID:       "s1",
		Questions:       []Question{{ID: 1, Type: TypeMultiple, CorrectAnswer: "Go", Distractors: []string{"Rust"}, UserAnswer: &answer, Visited: true}},
		CurrentQuestion: 1,
		TimeRemaining:   1200,
		TimeSpent:       600,
		StartedAt:       started,
		Timestamp:       started.Add(10 * time.Minute),
		User:            User{Name: "Ada", Email: "ada@example.com"},
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Snapshot
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SessionID != snap.SessionID || got.CurrentQuestion != 1 || got.TimeRemaining != 1200 || got.TimeSpent != 600 {
		t.Fatalf("scalar fields lost: %+v", got)
	}
	if !got.StartedAt.Equal(started) || got.User != snap.User {
		t.Fatalf("time or user lost: %+v", got)
	}
	if q := got.Questions[0]; q.UserAnswer == nil || *q.UserAnswer != "Go" || !q.Visited {
		t.Fatalf("question state lost: %+v", q)
	}
}

func TestReasonDescriptions(t *testing.T) {
	if ReasonPageUnload.Describe() != "Page refresh/close during quiz" {
		t.Fatalf("unexpected description %q", ReasonPageUnload.Describe())
	}
	if TerminationReason("Other").Valid() {
		t.Fatalf("unknown reason reported valid")
	}
	if _, ok := HighestPriority("Other"); ok {
		t.Fatalf("expected no winner among unknown reasons")
	}
}
