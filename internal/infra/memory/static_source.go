package memory

import (
	"context"
	"sync"

	"fullscreen-quiz-service/internal/domain"
)

// StaticSource serves question batches from a fixed list (useful for tests/demos and offline runs).
type StaticSource struct {
	questions []domain.Question

	mu    sync.Mutex
	calls int
	err   error
}

func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

// FailWith makes subsequent fetches return err until cleared with nil.
func (s *StaticSource) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Calls reports how many fetches were made.
func (s *StaticSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FetchBatch returns up to count questions renumbered from 1 with fresh answer state.
func (s *StaticSource) FetchBatch(_ context.Context, count int) ([]domain.Question, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if count > len(s.questions) {
		count = len(s.questions)
	}
	batch := domain.CloneQuestions(s.questions[:count])
	for i := range batch {
		batch[i].ID = i + 1
		batch[i].UserAnswer = nil
		batch[i].Visited = false
	}
	return batch, nil
}

// SampleQuestions provides a minimal offline question set.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{Type: domain.TypeMultiple, Difficulty: "easy", Category: "Science: Computers", Prompt: "What does CPU stand for?", CorrectAnswer: "Central Processing Unit", Distractors: []string{"Central Process Unit", "Computer Personal Unit", "Central Processor Unit"}},
		{Type: domain.TypeBoolean, Difficulty: "easy", Category: "Science: Computers", Prompt: "The logo for Snapchat is a Bell.", CorrectAnswer: "False", Distractors: []string{"True"}},
		{Type: domain.TypeMultiple, Difficulty: "easy", Category: "Science: Computers", Prompt: "What does the \"MP\" stand for in MP3?", CorrectAnswer: "Moving Picture", Distractors: []string{"Music Player", "Multi Pass", "Micro Point"}},
		{Type: domain.TypeBoolean, Difficulty: "easy", Category: "Science: Computers", Prompt: "RAM stands for Random Access Memory.", CorrectAnswer: "True", Distractors: []string{"False"}},
		{Type: domain.TypeMultiple, Difficulty: "medium", Category: "Science: Computers", Prompt: "In which year was the first version of Linux released?", CorrectAnswer: "1991", Distractors: []string{"1989", "1993", "1995"}},
		{Type: domain.TypeMultiple, Difficulty: "medium", Category: "Science: Computers", Prompt: "Which programming language was created by Google in 2009?", CorrectAnswer: "Go", Distractors: []string{"Rust", "Kotlin", "Swift"}},
		{Type: domain.TypeBoolean, Difficulty: "medium", Category: "Science: Computers", Prompt: "HTTP status code 404 means \"Not Found\".", CorrectAnswer: "True", Distractors: []string{"False"}},
		{Type: domain.TypeMultiple, Difficulty: "easy", Category: "Science: Computers", Prompt: "How many bits are in a byte?", CorrectAnswer: "8", Distractors: []string{"4", "16", "32"}},
		{Type: domain.TypeMultiple, Difficulty: "medium", Category: "Science: Computers", Prompt: "What port does HTTPS use by default?", CorrectAnswer: "443", Distractors: []string{"80", "8080", "22"}},
		{Type: domain.TypeBoolean, Difficulty: "hard", Category: "Science: Computers", Prompt: "The first computer bug was an actual moth.", CorrectAnswer: "True", Distractors: []string{"False"}},
		{Type: domain.TypeMultiple, Difficulty: "medium", Category: "Science: Computers", Prompt: "Which data structure works on a LIFO basis?", CorrectAnswer: "Stack", Distractors: []string{"Queue", "Heap", "Tree"}},
		{Type: domain.TypeMultiple, Difficulty: "easy", Category: "Science: Computers", Prompt: "What does HTML stand for?", CorrectAnswer: "Hypertext Markup Language", Distractors: []string{"Hyperlink Text Markup Language", "Home Tool Markup Language", "Hyper Transfer Markup Language"}},
		{Type: domain.TypeMultiple, Difficulty: "hard", Category: "Science: Computers", Prompt: "Which sorting algorithm has the best average-case complexity?", CorrectAnswer: "Merge Sort", Distractors: []string{"Bubble Sort", "Insertion Sort", "Selection Sort"}},
		{Type: domain.TypeBoolean, Difficulty: "medium", Category: "Science: Computers", Prompt: "Python is a compiled-only language.", CorrectAnswer: "False", Distractors: []string{"True"}},
		{Type: domain.TypeMultiple, Difficulty: "medium", Category: "Science: Computers", Prompt: "What does SQL stand for?", CorrectAnswer: "Structured Query Language", Distractors: []string{"Simple Query Language", "Standard Question Language", "Sequential Query Logic"}},
	}
}
