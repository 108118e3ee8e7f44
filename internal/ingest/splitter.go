package ingest

import (
	"fmt"
	"strings"

	"docchat-platform/models"
)

// Splitter cuts documents into fixed-size overlapping character windows
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter validates the window configuration. Overlap must be smaller
// than the chunk size or the window would never advance.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split joins the loaded segments and windows over the result. Lengths are
// measured in runes so multi-byte text is never cut mid-character. The
// output is identical for identical input.
func (s *Splitter) Split(segments []models.Segment, ref models.SourceRef) []models.DocumentChunk {
	text, starts := joinSegments(segments)
	runes := []rune(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	step := s.chunkSize - s.overlap
	chunks := make([]models.DocumentChunk, 0, s.ExpectedChunks(len(runes)))
	for start := 0; ; start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		content := string(runes[start:end])
		chunkRef := ref
		if seg := segmentAt(starts, start); seg >= 0 {
			chunkRef.Source = segments[seg].Source
			chunkRef.Page = segments[seg].Page
		}
		chunks = append(chunks, models.DocumentChunk{
			ID:      models.ChunkID(content),
			Content: content,
			Order:   len(chunks),
			Ref:     chunkRef,
		})

		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ExpectedChunks is ceil((L-O)/(C-O)) for L > C, 1 for 0 < L <= C and 0 for empty input
func (s *Splitter) ExpectedChunks(length int) int {
	switch {
	case length <= 0:
		return 0
	case length <= s.chunkSize:
		return 1
	}
	step := s.chunkSize - s.overlap
	return (length - s.overlap + step - 1) / step
}

// joinSegments concatenates segment texts with a newline and returns the
// rune offset at which each segment starts.
func joinSegments(segments []models.Segment) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(segments))
	offset := 0
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
			offset++
		}
		starts[i] = offset
		b.WriteString(seg.Text)
		offset += len([]rune(seg.Text))
	}
	return b.String(), starts
}

// segmentAt returns the index of the segment containing rune offset pos
func segmentAt(starts []int, pos int) int {
	idx := -1
	for i, s := range starts {
		if s > pos {
			break
		}
		idx = i
	}
	return idx
}
