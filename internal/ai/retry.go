package ai

import (
	"context"
	"math/rand/v2"
	"time"

	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
	"docchat-platform/models"
)

// RetryPolicy controls exponential backoff on rate-limit errors
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	JitterMax  time.Duration
}

// DefaultRetryPolicy mirrors the provider guidance: 5 retries, 1s base, up to 1s jitter
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, JitterMax: time.Second}
}

// Delay returns the backoff before retry number attempt (1-based), excluding jitter
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// RetryingEmbedder wraps an Embedder with rate-limit-aware retries
type RetryingEmbedder struct {
	next    Embedder
	policy  RetryPolicy
	limiter *SharedLimiter
	timeout time.Duration
	metrics *telemetry.Metrics

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

type RetryOption func(*RetryingEmbedder)

// WithLimiter shares one throttle across every embedding caller
func WithLimiter(l *SharedLimiter) RetryOption {
	return func(r *RetryingEmbedder) { r.limiter = l }
}

// WithCallTimeout bounds each individual provider call
func WithCallTimeout(d time.Duration) RetryOption {
	return func(r *RetryingEmbedder) { r.timeout = d }
}

func WithMetrics(m *telemetry.Metrics) RetryOption {
	return func(r *RetryingEmbedder) { r.metrics = m }
}

// WithSleep replaces the backoff sleep; tests use it to observe delays
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingEmbedder) { r.sleep = fn }
}

func WithJitter(fn func(limit time.Duration) time.Duration) RetryOption {
	return func(r *RetryingEmbedder) { r.jitter = fn }
}

func NewRetryingEmbedder(next Embedder, policy RetryPolicy, opts ...RetryOption) *RetryingEmbedder {
	r := &RetryingEmbedder{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
		jitter: randomJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EmbedText calls the wrapped embedder, retrying only rate-limit failures.
// After MaxRetries retries it returns *models.RateLimitExhaustedError.
func (r *RetryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	for attempt := 0; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vec, err := r.call(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !IsRateLimitError(err) {
			return nil, err
		}
		if attempt >= r.policy.MaxRetries {
			logger.Error("Embedding retries exhausted", "max_retries", r.policy.MaxRetries, "error", err)
			return nil, &models.RateLimitExhaustedError{Attempts: r.policy.MaxRetries, Last: err.Error()}
		}

		retry := attempt + 1
		delay := r.policy.Delay(retry) + r.jitter(r.policy.JitterMax)
		logger.Warn("Rate limited, backing off",
			"attempt", retry,
			"max_retries", r.policy.MaxRetries,
			"delay_ms", delay.Milliseconds(),
		)
		r.metrics.RecordEmbeddingRetry(ctx, retry)
		if r.limiter != nil {
			r.limiter.Backoff(delay)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (r *RetryingEmbedder) call(ctx context.Context, text string) ([]float32, error) {
	if r.timeout <= 0 {
		return r.next.EmbedText(ctx, text)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.EmbedText(callCtx, text)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

var _ Embedder = (*RetryingEmbedder)(nil)
