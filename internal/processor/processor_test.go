package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/var1ableX/langconnect-client/internal/model"
	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

func TestProcessSplitsAndStampsFileID(t *testing.T) {
	p := New(100, 20)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)

	chunks, err := p.Process(context.Background(), File{Name: "a.txt", ContentType: MIMEText, Data: []byte(text)},
		Options{Metadata: map[string]interface{}{"source": "a.txt", "team": "x"}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	fileID := chunks[0].FileID()
	require.NotEmpty(t, fileID)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c.Content), 100)
		require.Equal(t, fileID, c.FileID())
		require.Equal(t, "a.txt", c.Metadata["source"])
		require.Equal(t, "x", c.Metadata["team"])
	}

	// chunks own their metadata
	chunks[0].Metadata["team"] = "y"
	require.Equal(t, "x", chunks[1].Metadata["team"])

	again, err := p.Process(context.Background(), File{Name: "a.txt", Data: []byte(text)}, Options{})
	require.NoError(t, err)
	require.NotEqual(t, fileID, again[0].FileID())
}

func TestProcessFileIDOverridesCallerMetadata(t *testing.T) {
	p := New(100, 10)
	p.newFileID = func() string { return "fixed" }
	chunks, err := p.Process(context.Background(), File{Name: "a.txt", Data: []byte("hello")},
		Options{Metadata: map[string]interface{}{model.MetaFileID: "caller"}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "fixed", chunks[0].FileID())
	require.Equal(t, "hello", chunks[0].Content)
}

func TestProcessRejectsOverlapNotBelowSize(t *testing.T) {
	p := New(100, 10)
	_, err := p.Process(context.Background(), File{Name: "a.txt", Data: []byte("x")}, Options{ChunkSize: 50, ChunkOverlap: Overlap(50)})
	require.True(t, appErr.IsInvalid(err))

	_, err = p.Process(context.Background(), File{Name: "a.txt", Data: []byte("x")}, Options{ChunkOverlap: Overlap(-1)})
	require.True(t, appErr.IsInvalid(err))
}

func TestProcessZeroOverlap(t *testing.T) {
	p := New(1000, 200)
	text := "aaaa bbbb cccc dddd eeee ffff"
	chunks, err := p.Process(context.Background(), File{Name: "a.txt", Data: []byte(text)},
		Options{ChunkSize: 10, ChunkOverlap: Overlap(0)})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	var words []string
	for _, c := range chunks {
		words = append(words, strings.Fields(c.Content)...)
	}
	require.Equal(t, strings.Fields(text), words)
}

func TestProcessSmallChunkSizeKeepsDefaultOverlapInRange(t *testing.T) {
	p := New(1000, 200)
	chunks, err := p.Process(context.Background(), File{Name: "a.txt", Data: []byte("hello world")},
		Options{ChunkSize: 100})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, 20, DefaultOverlap(100, 200))
	require.Equal(t, 200, DefaultOverlap(1000, 200))
}

func TestProcessUnsupportedType(t *testing.T) {
	p := New(100, 10)
	_, err := p.Process(context.Background(), File{Name: "old.doc", ContentType: MIMEOctet, Data: []byte("x")}, Options{})
	require.True(t, appErr.IsInvalid(err))

	_, err = p.Process(context.Background(), File{Name: "x", ContentType: "image/png", Data: []byte("x")}, Options{})
	require.True(t, appErr.IsInvalid(err))
}

func TestProcessMarkdown(t *testing.T) {
	p := New(1000, 0)
	md := "# Title\n\nSome *bold* text.\n\n```\ncode here\n```\n"
	chunks, err := p.Process(context.Background(), File{Name: "a.md", ContentType: MIMEOctet, Data: []byte(md)}, Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "Title")
	require.Contains(t, chunks[0].Content, "Some bold text.")
	require.Contains(t, chunks[0].Content, "code here")
	require.NotContains(t, chunks[0].Content, "#")
	require.NotContains(t, chunks[0].Content, "*")
}

func TestProcessDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>
<w:p><w:r><w:t>Second line</w:t></w:r></w:p>
</w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := New(1000, 0)
	chunks, err := p.Process(context.Background(), File{Name: "a.docx", ContentType: MIMEDOCX, Data: buf.Bytes()}, Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "Hello world\nSecond line", chunks[0].Content)

	_, err = p.Process(context.Background(), File{Name: "bad.docx", ContentType: MIMEDOCX, Data: []byte("not a zip")}, Options{})
	require.True(t, appErr.IsInvalid(err))
}

func TestSupportedMIMETypes(t *testing.T) {
	require.ElementsMatch(t, []string{MIMEText, MIMEMarkdown, MIMEXMarkdown, MIMEHTML, MIMEPDF, MIMEDOCX}, SupportedMIMETypes())
}
