package scoring

import (
	"math"
	"math/rand"

	"fullscreen-quiz-service/internal/domain"
)

// Summary is the score of a finished question list.
type Summary struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
	Accuracy       int `json:"accuracy"`
}

// Score counts exact matches between user and correct answers. Unanswered never counts.
func Score(questions []domain.Question) Summary {
	correct := 0
	for _, q := range questions {
		if q.Correct() {
			correct++
		}
	}
	return Summary{
		Score:          correct,
		TotalQuestions: len(questions),
		Accuracy:       Accuracy(correct, len(questions)),
	}
}

// Accuracy is score/total as a percentage rounded half up.
func Accuracy(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(score)/float64(total)*100 + 0.5))
}

// Badge is an achievement shown on the results screen.
type Badge string

const (
	BadgePerfectScore Badge = "PerfectScore"
	BadgeHighAchiever Badge = "HighAchiever"
	BadgeSpeedDemon   Badge = "SpeedDemon"
)

// fastCompletionSeconds is the cutoff for the speed badge (20 minutes).
const fastCompletionSeconds = 1200

// Badges derives achievements from accuracy and time spent.
func Badges(accuracy, timeSpent int) []Badge {
	badges := []Badge{}
	if accuracy == 100 {
		badges = append(badges, BadgePerfectScore)
	}
	if accuracy >= 80 {
		badges = append(badges, BadgeHighAchiever)
	}
	if timeSpent < fastCompletionSeconds {
		badges = append(badges, BadgeSpeedDemon)
	}
	return badges
}

// Performance returns the headline message for an accuracy.
func Performance(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "Excellent work! Outstanding performance!"
	case accuracy >= 80:
		return "Great job! You did very well!"
	case accuracy >= 70:
		return "Good work! Room for improvement."
	case accuracy >= 60:
		return "Not bad! Keep practicing."
	}
	return "Keep trying! Practice makes perfect."
}

// Insight returns the secondary performance line.
func Insight(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "Exceptional performance! You're a trivia master!"
	case accuracy >= 70:
		return "Great job! A few more correct answers for excellence."
	case accuracy >= 50:
		return "Good effort! More practice will improve your score."
	}
	return "Keep trying! Every attempt makes you better."
}

// Options returns the answer choices in review order. Boolean questions are always
// True/False; other questions are reshuffled on every call.
func Options(q domain.Question, rnd *rand.Rand) []string {
	if q.Type == domain.TypeBoolean {
		return []string{"True", "False"}
	}
	options := make([]string, 0, len(q.Distractors)+1)
	options = append(options, q.Distractors...)
	options = append(options, q.CorrectAnswer)
	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}
