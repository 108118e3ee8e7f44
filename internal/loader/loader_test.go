package loader

import (
	"context"
	"errors"
	"testing"

	"docchat-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource map[string][]byte

func (m memSource) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func TestLoadPlainText(t *testing.T) {
	d := New(memSource{"uploads/notes.txt": []byte("hello world")})

	segs, err := d.Load(context.Background(), "uploads/notes.txt", "text/plain; charset=utf-8")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "hello world", segs[0].Text)
	assert.Equal(t, "notes.txt", segs[0].Source)
}

func TestLoadHTMLDropsScripts(t *testing.T) {
	page := `<html><head><title>Guide</title><style>p{}</style></head>
<body><h1>Intro</h1>
<script>var x = 1;</script>
<p>Read   this
carefully.</p></body></html>`
	d := New(memSource{"page.html": []byte(page)})

	segs, err := d.Load(context.Background(), "page.html", "text/html")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "Guide\nIntro Read this carefully.", segs[0].Text)
	assert.NotContains(t, segs[0].Text, "var x")
}

func TestLoadUnsupportedType(t *testing.T) {
	d := New(memSource{"a.png": []byte{0x89}})

	_, err := d.Load(context.Background(), "a.png", "image/png")
	assert.ErrorIs(t, err, models.ErrUnsupportedDocument)
}

func TestLoadMissingFile(t *testing.T) {
	d := New(memSource{})

	_, err := d.Load(context.Background(), "gone.txt", "text/plain")
	assert.Error(t, err)
}

func TestLoadInvalidPDF(t *testing.T) {
	d := New(memSource{"bad.pdf": []byte("not a pdf")})

	_, err := d.Load(context.Background(), "bad.pdf", "application/pdf")
	assert.Error(t, err)
}

// brokenXrefPDF has a readable header and body but points startxref past EOF
var brokenXrefPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
	"2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n" +
	"trailer\n<< /Size 3 /Root 1 0 R >>\nstartxref\n9999\n%%EOF\n")

func TestLoadBrokenXrefPDFReturnsError(t *testing.T) {
	d := New(memSource{"broken.pdf": brokenXrefPDF})

	assert.NotPanics(t, func() {
		_, err := d.Load(context.Background(), "broken.pdf", "application/pdf")
		assert.Error(t, err)
	})
}

func TestLoadRecoversParserPanic(t *testing.T) {
	d := New(memSource{"doc.pdf": []byte("%PDF-1.4")})
	d.parsers["application/pdf"] = func(context.Context, []byte, string, string) ([]models.Segment, error) {
		panic("malformed PDF: reading at offset 9999: EOF")
	}

	segments, err := d.Load(context.Background(), "doc.pdf", "application/pdf")
	assert.Nil(t, segments)
	require.ErrorIs(t, err, models.ErrMalformedDocument)
	assert.Contains(t, err.Error(), "offset 9999")
}
