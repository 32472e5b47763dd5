package source

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fullscreen-quiz-service/internal/domain"
)

// DefaultProviderURL is the public Open Trivia DB endpoint.
const DefaultProviderURL = "https://opentdb.com/api.php"

// NetworkError wraps transport-level failures (dial, timeout, non-2xx, bad body).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "fetch questions: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ProviderError signals the provider answered but could not satisfy the request.
type ProviderError struct {
	Code int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("question provider returned response code %d", e.Code)
}

// OpenTDB fetches question batches from an Open Trivia DB compatible endpoint.
// It never retries; that is left to the caller.
type OpenTDB struct {
	client   *http.Client
	baseURL  string
	category int
}

func NewOpenTDB(client *http.Client, baseURL string, category int) *OpenTDB {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultProviderURL
	}
	return &OpenTDB{client: client, baseURL: baseURL, category: category}
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// FetchBatch requests exactly count questions and returns them decoded and numbered from 1.
func (s *OpenTDB) FetchBatch(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("fetch questions: count must be positive, got %d", count)
	}

	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: parse provider url: %w", err)
	}
	query := endpoint.Query()
	query.Set("amount", strconv.Itoa(count))
	if s.category > 0 {
		query.Set("category", strconv.Itoa(s.category))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode body: %w", err)}
	}
	if payload.ResponseCode != 0 {
		return nil, &ProviderError{Code: payload.ResponseCode}
	}
	return normalize(payload.Results), nil
}

// normalize decodes HTML entities and assigns 1-based ids in provider order.
func normalize(results []apiQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(results))
	for i, r := range results {
		distractors := make([]string, 0, len(r.IncorrectAnswers))
		for _, answer := range r.IncorrectAnswers {
			distractors = append(distractors, html.UnescapeString(answer))
		}
		questions = append(questions, domain.Question{
			ID:            i + 1,
			Type:          r.Type,
			Difficulty:    r.Difficulty,
			Category:      html.UnescapeString(r.Category),
			Prompt:        html.UnescapeString(r.Question),
			CorrectAnswer: html.UnescapeString(r.CorrectAnswer),
			Distractors:   distractors,
		})
	}
	return questions
}
