// Package extract pulls plain text out of uploaded reference files so
// the oracle can work with document content regardless of format.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"rsc.io/pdf"
)

// Text extracts plain text from an uploaded file, dispatching on the
// filename extension. Unknown extensions are an error rather than a
// guess; the caller decides what to do with unsupported uploads.
func Text(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: not valid UTF-8 text", filename)
		}
		return strings.TrimSpace(string(data)), nil
	case ".html", ".htm":
		return htmlText(data)
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

func pdfText(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content := p.Content()
		parts := make([]string, 0, len(content.Text))
		for _, text := range content.Text {
			if strings.TrimSpace(text.S) == "" {
				continue
			}
			parts = append(parts, text.S)
		}
		if len(parts) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.Join(parts, " "))
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return sb.String(), nil
}

func htmlText(data []byte) (string, error) {
	u := &url.URL{Scheme: "file", Path: "/"}
	article, err := readability.FromReader(bytes.NewReader(data), u)
	if err != nil {
		return "", fmt.Errorf("readability extraction: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("html contains no extractable text")
	}
	return text, nil
}
