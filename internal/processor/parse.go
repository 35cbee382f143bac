package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	appErr "github.com/var1ableX/langconnect-client/internal/pkg/errors"
)

type parseFunc func(ctx context.Context, data []byte) ([]schema.Document, error)

var parsers = map[string]parseFunc{
	MIMEText:      parseText,
	MIMEMarkdown:  parseMarkdown,
	MIMEXMarkdown: parseMarkdown,
	MIMEHTML:      parseHTML,
	MIMEPDF:       parsePDF,
	MIMEDOCX:      parseDOCX,
}

// SupportedMIMETypes lists the content types Process accepts.
func SupportedMIMETypes() []string {
	out := make([]string, 0, len(parsers))
	for k := range parsers {
		out = append(out, k)
	}
	return out
}

func parse(ctx context.Context, mimeType string, data []byte) ([]schema.Document, error) {
	fn, ok := parsers[mimeType]
	if !ok {
		return nil, appErr.Invalidf("unsupported content type %q", mimeType)
	}
	docs, err := fn(ctx, data)
	if err != nil {
		return nil, appErr.Invalidf("parse %s: %v", mimeType, err)
	}
	return docs, nil
}

func parseText(ctx context.Context, data []byte) ([]schema.Document, error) {
	return documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
}

func parseHTML(ctx context.Context, data []byte) ([]schema.Document, error) {
	return documentloaders.NewHTML(bytes.NewReader(data)).Load(ctx)
}

// parsePDF yields one document per page.
func parsePDF(ctx context.Context, data []byte) ([]schema.Document, error) {
	return documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
}

// parseMarkdown keeps the text of each top-level block, one block per
// paragraph, and drops the markup around it.
func parseMarkdown(_ context.Context, data []byte) ([]schema.Document, error) {
	reader := text.NewReader(data)
	doc := goldmark.New().Parser().Parse(reader)
	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		var block string
		switch n := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			block = blockLines(n, data)
		default:
			block = inlineText(n, data)
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return []schema.Document{{
		PageContent: strings.Join(blocks, "\n\n"),
		Metadata:    map[string]any{},
	}}, nil
}

func blockLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Kind() == ast.KindParagraph || node.Kind() == ast.KindHeading {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

// parseDOCX reads the paragraphs of word/document.xml.
func parseDOCX(_ context.Context, data []byte) ([]schema.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		var doc docxDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}
		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, p := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					sb.WriteString(t.Content)
				}
			}
			paragraphs = append(paragraphs, sb.String())
		}
		return []schema.Document{{
			PageContent: strings.TrimSpace(strings.Join(paragraphs, "\n")),
			Metadata:    map[string]any{},
		}}, nil
	}
	return nil, fmt.Errorf("word/document.xml not found")
}
