package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fullscreen-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultArchive appends finished quizzes to the quiz_results table.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) Archive(ctx context.Context, result domain.QuizResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO quiz_results (session_id, email, name, score, total, accuracy, time_spent, terminated, reason, completed_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO NOTHING`,
		result.SessionID, strings.ToLower(result.User.Email), result.User.Name, result.Score, result.TotalQuestions,
		result.Accuracy, result.TimeSpent, result.Terminated, string(result.TerminationReason),
		result.CompletedAt, data)
	if err != nil {
		return fmt.Errorf("archive result: %w", err)
	}
	return nil
}

// History returns the most recent results for email, newest first.
func (a *ResultArchive) History(ctx context.Context, email string, limit int) ([]domain.QuizResult, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT data FROM quiz_results WHERE email = $1 ORDER BY completed_at DESC LIMIT $2`, strings.ToLower(email), limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var results []domain.QuizResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var result domain.QuizResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
