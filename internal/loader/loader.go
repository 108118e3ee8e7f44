package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"docchat-platform/models"
)

// Loader turns a stored document into text segments, typically one per page
type Loader interface {
	Load(ctx context.Context, path, contentType string) ([]models.Segment, error)
}

// Source reads the raw bytes of a stored document
type Source interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// parser extracts segments from document bytes; name labels each segment's source
type parser func(ctx context.Context, data []byte, name, contentType string) ([]models.Segment, error)

// Dispatcher picks a parser by content type
type Dispatcher struct {
	source  Source
	parsers map[string]parser
}

// New returns a Dispatcher covering PDF, Word, HTML and plain text
func New(source Source) *Dispatcher {
	return &Dispatcher{
		source: source,
		parsers: map[string]parser{
			"application/pdf":    parsePDF,
			"application/msword": parseOffice,
			"application/doc":    parseOffice,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": parseOffice,
			"text/html":  parseHTML,
			"text/plain": parseText,
		},
	}
}

func (d *Dispatcher) Load(ctx context.Context, path, contentType string) (_ []models.Segment, err error) {
	mediaType := normalize(contentType)
	parse, ok := d.parsers[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedDocument, contentType)
	}

	data, err := d.source.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// some parsers panic on malformed input instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: %w: %v", mediaType, models.ErrMalformedDocument, r)
		}
	}()

	segments, err := parse(ctx, data, filepath.Base(path), mediaType)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", mediaType, err)
	}
	return segments, nil
}

// normalize drops parameters such as "; charset=utf-8"
func normalize(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

var _ Loader = (*Dispatcher)(nil)
