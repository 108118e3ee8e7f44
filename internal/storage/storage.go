package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Store holds uploaded files until the worker has ingested them
type Store interface {
	// Save writes data under key and returns the path the worker should read
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Remove(ctx context.Context, path string) error
	// ListOlderThan returns paths last modified before cutoff
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
	// Destination names where files land (directory or bucket)
	Destination() string
}

// ObjectKey builds a unique, filesystem-safe key for an upload
func ObjectKey(now time.Time, filename string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)
	if base == "." || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}
