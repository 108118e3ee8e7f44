package services

import (
	"context"
	"errors"
	"sync"

	"docchat-platform/internal/ai"
	"docchat-platform/models"
)

// echoModel appends the prompt and a canned reply to the history it is given
type echoModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	seen    [][]models.Turn
}

func (m *echoModel) SendTurn(_ context.Context, prompt string, history []models.Turn) (*ai.TurnResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.seen = append(m.seen, append([]models.Turn(nil), history...))
	if m.err != nil {
		return nil, m.err
	}
	out := append([]models.Turn(nil), history...)
	out = append(out,
		models.Turn{Role: models.RoleUser, Text: prompt},
		models.Turn{Role: models.RoleModel, Text: m.reply},
	)
	return &ai.TurnResult{Text: m.reply, History: out}, nil
}

type stubRetriever struct {
	hits        []models.ScoredChunk
	err         error
	collections []string
	queries     []string
}

func (r *stubRetriever) SimilaritySearch(_ context.Context, collection, query string, k int) ([]models.ScoredChunk, error) {
	r.collections = append(r.collections, collection)
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.hits) > k {
		return r.hits[:k], nil
	}
	return r.hits, nil
}

type stubQueue struct {
	jobs []models.IngestionJob
	err  error
}

func (q *stubQueue) Enqueue(_ context.Context, job models.IngestionJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

var errBoom = errors.New("boom")
