package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxText reads word/document.xml out of the DOCX zip container and
// flattens the WordprocessingML body: text runs (w:t) concatenate within
// a paragraph, paragraphs (w:p) become lines.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	text, err := flattenDocumentXML(rc)
	if err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("docx contains no extractable text")
	}
	return text, nil
}

func flattenDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		para   strings.Builder
		inText bool
	)
	flush := func() {
		line := strings.TrimSpace(para.String())
		para.Reset()
		if line == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()
	return sb.String(), nil
}
