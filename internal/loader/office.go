package loader

import (
	"bytes"
	"context"

	"docchat-platform/models"

	"code.sajari.com/docconv"
)

// parseOffice handles .doc and .docx. Legacy .doc needs wvText on PATH.
func parseOffice(_ context.Context, data []byte, name, contentType string) ([]models.Segment, error) {
	if contentType == "application/doc" {
		contentType = "application/msword"
	}
	res, err := docconv.Convert(bytes.NewReader(data), contentType, false)
	if err != nil {
		return nil, err
	}
	return []models.Segment{{Text: res.Body, Source: name}}, nil
}
