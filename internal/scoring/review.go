package scoring

import (
	"math/rand"

	"fullscreen-quiz-service/internal/domain"
)

// ReviewItem is one row of the results review list.
type ReviewItem struct {
	ID            int      `json:"id"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Prompt        string   `json:"question"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    *string  `json:"userAnswer"`
	AllOptions    []string `json:"allOptions"`
	IsCorrect     bool     `json:"isCorrect"`
}

// Review is the results view of a finished quiz.
type Review struct {
	Result      domain.QuizResult `json:"result"`
	Items       []ReviewItem      `json:"questions"`
	Incorrect   int               `json:"incorrect"`
	Badges      []Badge           `json:"badges"`
	Performance string            `json:"performance"`
	Insight     string            `json:"insight"`
	Reason      string            `json:"reason,omitempty"`
}

// BuildReview expands a stored result for display. rnd may be nil.
func BuildReview(result domain.QuizResult, rnd *rand.Rand) Review {
	items := make([]ReviewItem, 0, len(result.Questions))
	for i, q := range result.Questions {
		id := q.ID
		if id == 0 {
			id = i + 1
		}
		items = append(items, ReviewItem{
			ID:            id,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    q.UserAnswer,
			AllOptions:    Options(q, rnd),
			IsCorrect:     q.Correct(),
		})
	}
	review := Review{
		Result:      result,
		Items:       items,
		Incorrect:   result.TotalQuestions - result.Score,
		Badges:      Badges(result.Accuracy, result.TimeSpent),
		Performance: Performance(result.Accuracy),
		Insight:     Insight(result.Accuracy),
	}
	if result.Terminated {
		review.Reason = result.TerminationReason.Describe()
	}
	return review
}
