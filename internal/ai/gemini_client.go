package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
	"docchat-platform/models"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// TurnResult is the model's reply plus the full replayable history
type TurnResult struct {
	Text    string
	History []models.Turn
}

// ChatModel sends one prompt on top of a prior conversation
type ChatModel interface {
	SendTurn(ctx context.Context, prompt string, history []models.Turn) (*TurnResult, error)
}

// ErrModelUnavailable is returned while the circuit breaker is open
var ErrModelUnavailable = errors.New("language model temporarily unavailable")

type GeminiChat struct {
	client      *genai.Client
	modelName   string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	metrics     *telemetry.Metrics
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiChat(ctx context.Context, apiKey, modelName, tier string, metrics *telemetry.Metrics) (*GeminiChat, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	// Configure rate limits based on tier
	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		// A caller giving up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	// RPM limit with some buffer
	burst := limits.RPM / 10
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burst)

	return &GeminiChat{
		client:      client,
		modelName:   modelName,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		metrics:     metrics,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// SendTurn replays history into a chat session and sends prompt. The system
// turn, if any, becomes the model's system instruction and is put back at
// the head of the returned history.
func (gc *GeminiChat) SendTurn(ctx context.Context, prompt string, history []models.Turn) (*TurnResult, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.send_turn")
	defer span.End()

	system, prior := splitSystem(history)
	span.SetAttributes(
		attribute.String("gemini.model", gc.modelName),
		attribute.Int("gemini.history_turns", len(prior)),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.modelName)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(2048)
		if system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}

		cs := model.StartChat()
		cs.History = toContents(prior)

		resp, err := cs.SendMessage(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return nil, err
		}
		if resp.UsageMetadata != nil {
			span.SetAttributes(attribute.Int("gemini.actual_tokens", int(resp.UsageMetadata.TotalTokenCount)))
		}

		return &TurnResult{
			Text:    responseText(resp),
			History: withSystem(system, fromContents(cs.History)),
		}, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return nil, fmt.Errorf("gemini send message: %w", err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.(*TurnResult), nil
}

// Close the client
func (gc *GeminiChat) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}

func splitSystem(history []models.Turn) (string, []models.Turn) {
	if len(history) > 0 && history[0].Role == models.RoleSystem {
		return history[0].Text, history[1:]
	}
	return "", history
}

func withSystem(system string, turns []models.Turn) []models.Turn {
	if system == "" {
		return turns
	}
	out := make([]models.Turn, 0, len(turns)+1)
	out = append(out, models.Turn{Role: models.RoleSystem, Text: system})
	return append(out, turns...)
}

// toContents maps stored turns onto Gemini chat contents. Stray system
// turns are sent as user content since the chat API has no system role.
func toContents(turns []models.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == models.RoleModel {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	return out
}

func fromContents(contents []*genai.Content) []models.Turn {
	out := make([]models.Turn, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		role := models.RoleUser
		if c.Role == "model" {
			role = models.RoleModel
		}
		out = append(out, models.Turn{Role: role, Text: partsText(c.Parts)})
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	return partsText(resp.Candidates[0].Content.Parts)
}

func partsText(parts []genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ ChatModel = (*GeminiChat)(nil)
