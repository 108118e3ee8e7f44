package ingest

import (
	"fmt"
	"strings"
	"testing"

	"docchat-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOfLength(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz "
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}

func TestNewSplitterRejectsBadConfig(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)
	_, err = NewSplitter(100, 100)
	assert.Error(t, err)
	_, err = NewSplitter(100, -1)
	assert.Error(t, err)
}

func TestSplitChunkCountFormula(t *testing.T) {
	configs := []struct{ size, overlap int }{
		{1000, 200},
		{100, 0},
		{50, 49},
		{7, 3},
	}
	lengths := []int{1, 6, 7, 8, 49, 50, 51, 99, 100, 101, 799, 800, 1000, 1001, 1800, 1801, 3400, 3500, 10007}

	for _, c := range configs {
		s, err := NewSplitter(c.size, c.overlap)
		require.NoError(t, err)
		for _, l := range lengths {
			t.Run(fmt.Sprintf("C%d_O%d_L%d", c.size, c.overlap, l), func(t *testing.T) {
				chunks := s.Split([]models.Segment{{Text: textOfLength(l)}}, models.SourceRef{})

				want := 1
				if l > c.size {
					step := c.size - c.overlap
					want = (l - c.overlap + step - 1) / step
				}
				assert.Len(t, chunks, want)
				assert.Equal(t, want, s.ExpectedChunks(l))

				for i, ch := range chunks {
					assert.LessOrEqual(t, len([]rune(ch.Content)), c.size)
					assert.Equal(t, i, ch.Order)
				}
			})
		}
	}
}

func TestSplitOverlapAndCoverage(t *testing.T) {
	s, err := NewSplitter(1000, 200)
	require.NoError(t, err)
	text := textOfLength(3400)

	chunks := s.Split([]models.Segment{{Text: text}}, models.SourceRef{JobID: "job-1"})
	require.Len(t, chunks, 4)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		assert.True(t, strings.HasPrefix(chunks[i].Content, prev[len(prev)-200:]),
			"chunk %d must start with the last 200 chars of chunk %d", i, i-1)
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1].Content))
	assert.Equal(t, "job-1", chunks[0].Ref.JobID)
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)
	segs := []models.Segment{{Text: textOfLength(450), Source: "a.pdf", Page: 1}}

	assert.Equal(t, s.Split(segs, models.SourceRef{}), s.Split(segs, models.SourceRef{}))
}

func TestSplitEmptyDocument(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	assert.Empty(t, s.Split(nil, models.SourceRef{}))
	assert.Empty(t, s.Split([]models.Segment{{Text: "   \n\t"}}, models.SourceRef{}))
}

func TestSplitTracksPages(t *testing.T) {
	s, err := NewSplitter(10, 0)
	require.NoError(t, err)
	segs := []models.Segment{
		{Text: "aaaaaaaaa", Source: "doc.pdf", Page: 1},
		{Text: "bbbbbbbbbb", Source: "doc.pdf", Page: 2},
	}

	chunks := s.Split(segs, models.SourceRef{Filename: "doc.pdf"})

	// 9 + newline + 10 = 20 runes -> two windows of 10, the second starting on page 2
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Ref.Page)
	assert.Equal(t, 2, chunks[1].Ref.Page)
	assert.Equal(t, "doc.pdf", chunks[1].Ref.Filename)
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	s, err := NewSplitter(4, 1)
	require.NoError(t, err)

	chunks := s.Split([]models.Segment{{Text: "héllo wörld"}}, models.SourceRef{})
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Content)), 4)
	}
	assert.Len(t, chunks, s.ExpectedChunks(len([]rune("héllo wörld"))))
}

func TestChunkIDsAreContentHashes(t *testing.T) {
	s, err := NewSplitter(5, 0)
	require.NoError(t, err)

	chunks := s.Split([]models.Segment{{Text: "abcdeabcde"}}, models.SourceRef{})
	require.Len(t, chunks, 2)
	assert.Equal(t, chunks[0].ID, chunks[1].ID)
	assert.Equal(t, models.ChunkID("abcde"), chunks[0].ID)
}
