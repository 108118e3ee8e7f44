package models

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. The typed errors below match these.
var (
	ErrInvalidUpload       = errors.New("invalid upload")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrRateLimitExhausted  = errors.New("rate limit retries exhausted")
	ErrUpstream            = errors.New("upstream service failure")
	ErrJobNotFound         = errors.New("job not found")
	ErrEmptyDocument       = errors.New("document contains no extractable text")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrMalformedDocument   = errors.New("malformed document")
)

// InvalidUploadError is returned for a missing file or a rejected MIME type
type InvalidUploadError struct {
	Reason string
}

func (e *InvalidUploadError) Error() string { return "invalid upload: " + e.Reason }

func (e *InvalidUploadError) Is(target error) bool { return target == ErrInvalidUpload }

// InvalidRequestError is returned for a malformed chat request
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return "invalid request: " + e.Reason }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// RateLimitExhaustedError means every embedding attempt was rate limited.
// It deliberately does not unwrap to the last provider error.
type RateLimitExhaustedError struct {
	Attempts int
	Last     string
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("failed to embed text after %d retries due to rate limiting (last: %s)", e.Attempts, e.Last)
}

func (e *RateLimitExhaustedError) Is(target error) bool { return target == ErrRateLimitExhausted }

// UpstreamServiceError wraps a vector store, model or loader failure
type UpstreamServiceError struct {
	Service string
	Err     error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }

func (e *UpstreamServiceError) Is(target error) bool { return target == ErrUpstream }

// Upstream wraps err as an UpstreamServiceError unless it already is one
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamServiceError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamServiceError{Service: service, Err: err}
}

// JobNotFoundError is returned by status lookups for unknown sessions
type JobNotFoundError struct {
	SessionID string
}

func (e *JobNotFoundError) Error() string { return "no job for session " + e.SessionID }

func (e *JobNotFoundError) Is(target error) bool { return target == ErrJobNotFound }
