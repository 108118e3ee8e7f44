package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	EmbeddingRetries    metric.Int64Counter
	ChunksUpserted      metric.Int64Counter
	ChunksFailed        metric.Int64Counter
	JobDuration         metric.Float64Histogram
	ChatRequests        metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docchat-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingRetries, err := meter.Int64Counter(
		"embedding.retries",
		metric.WithDescription("Embedding calls retried after a rate-limit response"),
	)
	if err != nil {
		return nil, err
	}

	chunksUpserted, err := meter.Int64Counter(
		"ingest.chunks.upserted",
		metric.WithDescription("Chunks written to a vector collection"),
	)
	if err != nil {
		return nil, err
	}

	chunksFailed, err := meter.Int64Counter(
		"ingest.chunks.failed",
		metric.WithDescription("Chunks dropped after an embed or upsert failure"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"ingest.job.duration",
		metric.WithDescription("Ingestion job duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chatRequests, err := meter.Int64Counter(
		"chat.requests",
		metric.WithDescription("Chat turns handled"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		EmbeddingRetries:    embeddingRetries,
		ChunksUpserted:      chunksUpserted,
		ChunksFailed:        chunksFailed,
		JobDuration:         jobDuration,
		ChatRequests:        chatRequests,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// NoopMetrics builds instruments against the global provider, which is a
// no-op until an SDK provider is installed. Used by tests and callers that
// pass nil.
func NoopMetrics() *Metrics {
	m, err := InitMetrics()
	if err != nil {
		return &Metrics{}
	}
	return m
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil || m.RequestCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordEmbeddingRetry records one backoff attempt
func (m *Metrics) RecordEmbeddingRetry(ctx context.Context, attempt int) {
	if m == nil || m.EmbeddingRetries == nil {
		return
	}
	m.EmbeddingRetries.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}

// RecordUpsert records per-job chunk outcomes
func (m *Metrics) RecordUpsert(ctx context.Context, succeeded, failed int) {
	if m == nil || m.ChunksUpserted == nil {
		return
	}
	m.ChunksUpserted.Add(ctx, int64(succeeded))
	m.ChunksFailed.Add(ctx, int64(failed))
}

// RecordJob records ingestion job duration by terminal state
func (m *Metrics) RecordJob(ctx context.Context, duration float64, state string) {
	if m == nil || m.JobDuration == nil {
		return
	}
	m.JobDuration.Record(ctx, duration, metric.WithAttributes(attribute.String("job.state", state)))
}

// RecordChat records one chat turn outcome
func (m *Metrics) RecordChat(ctx context.Context, outcome string) {
	if m == nil || m.ChatRequests == nil {
		return
	}
	m.ChatRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("chat.outcome", outcome)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil || m.CircuitBreakerState == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
