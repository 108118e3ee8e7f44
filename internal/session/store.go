package session

import (
	"context"
	"errors"

	"docchat-platform/models"
)

// ErrNotFound is returned by Get for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Store persists conversation history per session. Every Save refreshes
// the session's expiry.
type Store interface {
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	Save(ctx context.Context, rec *models.SessionRecord) error
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}
