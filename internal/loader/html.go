package loader

import (
	"bytes"
	"context"
	"strings"

	"docchat-platform/models"

	"github.com/PuerkitoBio/goquery"
)

// parseHTML keeps the visible text of the page, title first
func parseHTML(_ context.Context, data []byte, name, _ string) ([]models.Segment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	if text := collapse(body.Text()); text != "" {
		parts = append(parts, text)
	}

	return []models.Segment{{Text: strings.Join(parts, "\n"), Source: name}}, nil
}

func parseText(_ context.Context, data []byte, name, _ string) ([]models.Segment, error) {
	return []models.Segment{{Text: string(data), Source: name}}, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
