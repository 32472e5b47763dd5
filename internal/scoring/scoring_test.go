package scoring

import (
	"math/rand"
	"sort"
	"testing"

	"fullscreen-quiz-service/internal/domain"
)

func makeQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:            i + 1,
			Type:          domain.TypeMultiple,
			Prompt:        "prompt",
			CorrectAnswer: "right",
			Distractors:   []string{"wrong-a", "wrong-b", "wrong-c"},
		}
	}
	return questions
}

func answer(q *domain.Question, text string) {
	q.UserAnswer = &text
}

func TestScoreAllCorrect(t *testing.T) {
	questions := makeQuestions(15)
	for i := range questions {
		answer(&questions[i], "right")
	}
	summary := Score(questions)
	if summary.Score != 15 || summary.Accuracy != 100 || summary.TotalQuestions != 15 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestScoreAllUnanswered(t *testing.T) {
	summary := Score(makeQuestions(15))
	if summary.Score != 0 || summary.Accuracy != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestScoreMixed(t *testing.T) {
	questions := makeQuestions(15)
	for i := 0; i < 9; i++ {
		answer(&questions[i], "right")
	}
	answer(&questions[9], "wrong-a")
	answer(&questions[10], "wrong-b")

	summary := Score(questions)
	if summary.Score != 9 || summary.Accuracy != 60 {
		t.Fatalf("expected 9/60, got %+v", summary)
	}
}

func TestAccuracyRoundsHalfUp(t *testing.T) {
	cases := []struct{ score, total, want int }{
		{1, 8, 13},  // 12.5
		{1, 3, 33},  // 33.3
		{2, 3, 67},  // 66.7
		{7, 15, 47}, // 46.7
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := Accuracy(tc.score, tc.total); got != tc.want {
			t.Fatalf("Accuracy(%d, %d) = %d, want %d", tc.score, tc.total, got, tc.want)
		}
	}
}

func TestBadges(t *testing.T) {
	got := Badges(100, 600)
	want := []Badge{BadgePerfectScore, BadgeHighAchiever, BadgeSpeedDemon}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if got := Badges(79, 1200); len(got) != 0 {
		t.Fatalf("expected no badges, got %v", got)
	}
}

func TestOptionsContainEveryAnswer(t *testing.T) {
	q := makeQuestions(1)[0]
	options := Options(q, rand.New(rand.NewSource(7)))
	sort.Strings(options)
	want := []string{"right", "wrong-a", "wrong-b", "wrong-c"}
	for i := range want {
		if options[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, options)
		}
	}
}

func TestOptionsBooleanFixedOrder(t *testing.T) {
	q := domain.Question{Type: domain.TypeBoolean, CorrectAnswer: "False", Distractors: []string{"True"}}
	options := Options(q, nil)
	if len(options) != 2 || options[0] != "True" || options[1] != "False" {
		t.Fatalf("unexpected boolean options %v", options)
	}
}

func TestBuildReviewTerminated(t *testing.T) {
	questions := makeQuestions(3)
	answer(&questions[0], "right")
	answer(&questions[1], "wrong-a")
	summary := Score(questions)
	review := BuildReview(domain.QuizResult{
		Questions:         questions,
		Score:             summary.Score,
		TotalQuestions:    summary.TotalQuestions,
		Accuracy:          summary.Accuracy,
		TimeSpent:         1500,
		Terminated:        true,
		TerminationReason: domain.ReasonExitedFullscreen,
	}, nil)

	if review.Incorrect != 2 {
		t.Fatalf("expected 2 incorrect, got %d", review.Incorrect)
	}
	if !review.Items[0].IsCorrect || review.Items[1].IsCorrect || review.Items[2].IsCorrect {
		t.Fatalf("unexpected correctness %+v", review.Items)
	}
	if review.Reason != "Exited fullscreen mode" {
		t.Fatalf("unexpected reason %q", review.Reason)
	}
	if review.Performance != Performance(33) {
		t.Fatalf("unexpected performance %q", review.Performance)
	}
}
