package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/session"
	"docchat-platform/internal/telemetry"
	"docchat-platform/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Retriever finds the chunks of a collection closest to a query
type Retriever interface {
	SimilaritySearch(ctx context.Context, collection, query string, k int) ([]models.ScoredChunk, error)
}

// ChatOptions tunes retrieval and prompting
type ChatOptions struct {
	SystemPrompt    string
	TopK            int
	MaxContextChars int
	Timeout         time.Duration
}

// ChatService answers questions about a session's document while keeping
// the session's conversation history.
type ChatService struct {
	sessions  session.Store
	locks     *session.KeyedMutex
	retriever Retriever
	model     ai.ChatModel
	opts      ChatOptions
	metrics   *telemetry.Metrics

	now   func() time.Time
	newID func() string
}

func NewChatService(sessions session.Store, retriever Retriever, model ai.ChatModel, opts ChatOptions, metrics *telemetry.Metrics) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 1000
	}
	return &ChatService{
		sessions:  sessions,
		locks:     session.NewKeyedMutex(),
		retriever: retriever,
		model:     model,
		opts:      opts,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Ask runs one chat turn. An empty sessionID starts a new session. Turns
// for the same session run one at a time; on any failure the stored
// history is left as it was.
func (s *ChatService) Ask(ctx context.Context, sessionID, query string) (*models.Answer, error) {
	ctx, span := otel.Tracer("chat").Start(ctx, "chat.ask")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		s.metrics.RecordChat(ctx, "invalid")
		return nil, &models.InvalidRequestError{Reason: "message is required"}
	}
	if sessionID == "" {
		sessionID = s.newID()
	}
	span.SetAttributes(attribute.String("chat.session_id", sessionID))
	log := logger.With("session_id", sessionID)

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	rec, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		rec = &models.SessionRecord{SessionID: sessionID, CreatedAt: s.now()}
	case err != nil:
		s.metrics.RecordChat(ctx, "error")
		return nil, models.Upstream("session store", err)
	}
	rec.EnsureSystemTurn(s.opts.SystemPrompt)

	hits, err := s.retriever.SimilaritySearch(ctx, models.CollectionName(sessionID), query, s.opts.TopK)
	if err != nil {
		log.Error("Similarity search failed", "error", err)
		s.metrics.RecordChat(ctx, "error")
		return nil, models.Upstream("vector store", err)
	}
	prompt := BuildPrompt(BuildContext(hits, s.opts.MaxContextChars), query)
	span.SetAttributes(attribute.Int("chat.context_chunks", len(hits)))

	turnCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	res, err := s.model.SendTurn(turnCtx, prompt, rec.History)
	if err != nil {
		log.Error("Model call failed", "error", err)
		s.metrics.RecordChat(ctx, "error")
		return nil, models.Upstream("language model", err)
	}

	rec.History = res.History
	rec.EnsureSystemTurn(s.opts.SystemPrompt)
	rec.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, rec); err != nil {
		log.Error("Failed to persist session", "error", err)
		s.metrics.RecordChat(ctx, "error")
		return nil, models.Upstream("session store", err)
	}

	s.metrics.RecordChat(ctx, "ok")
	log.Debug("Chat turn completed", "turns", len(rec.History))
	return &models.Answer{Text: res.Text, SessionID: sessionID}, nil
}

// History returns the stored conversation of a session
func (s *ChatService) History(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, models.Upstream("session store", err)
	}
	return rec, nil
}

// BuildContext truncates each chunk to maxChars runes and joins them with blank lines
func BuildContext(hits []models.ScoredChunk, maxChars int) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, truncateRunes(h.Content, maxChars))
	}
	return strings.Join(parts, "\n\n")
}

func BuildPrompt(contextText, query string) string {
	return fmt.Sprintf("I want you to answer my question based on this context:\n\n%s\n\nMy question is: %s", contextText, query)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
