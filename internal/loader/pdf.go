package loader

import (
	"bytes"
	"context"
	"fmt"

	"docchat-platform/internal/logger"
	"docchat-platform/models"

	"github.com/ledongthuc/pdf"
)

// parsePDF emits one segment per page with text; unreadable pages are skipped
func parsePDF(ctx context.Context, data []byte, name, _ string) ([]models.Segment, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	pages := reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	segments := make([]models.Segment, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "source", name, "page", i, "error", err)
			continue
		}
		segments = append(segments, models.Segment{Text: text, Source: name, Page: i})
	}
	return segments, nil
}
