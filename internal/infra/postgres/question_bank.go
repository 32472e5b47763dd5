package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fullscreen-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank serves question batches from the question_bank table, stored as JSONB in the
// provider's shape. It is an alternative source when the public provider is unavailable.
type QuestionBank struct {
	pool     *pgxpool.Pool
	category string
}

// NewQuestionBank limits batches to category when it is non-empty.
func NewQuestionBank(pool *pgxpool.Pool, category string) *QuestionBank {
	return &QuestionBank{pool: pool, category: category}
}

func (b *QuestionBank) FetchBatch(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("load questions: count must be positive, got %d", count)
	}
	rows, err := b.pool.Query(ctx,
		`SELECT data FROM question_bank WHERE ($1::text = '' OR category = $1::text) ORDER BY random() LIMIT $2`,
		b.category, count)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, count)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		q.ID = len(questions) + 1
		q.UserAnswer = nil
		q.Visited = false
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// AddQuestion inserts q into the bank and reports whether it was new. Prompts are unique.
func (b *QuestionBank) AddQuestion(ctx context.Context, q domain.Question) (bool, error) {
	q.ID = 0
	q.UserAnswer = nil
	q.Visited = false
	data, err := json.Marshal(q)
	if err != nil {
		return false, fmt.Errorf("marshal question: %w", err)
	}
	tag, err := b.pool.Exec(ctx,
		`INSERT INTO question_bank (category, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`, q.Category, data)
	if err != nil {
		return false, fmt.Errorf("insert question: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
