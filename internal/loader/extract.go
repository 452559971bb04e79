package loader

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tools/internal/fetch"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format identifies how a document's bytes were turned into text.
type Format string

// Supported formats
const (
	FormatText Format = "text"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// FormatFromExt maps a lowercased file extension to a format.
// Unknown extensions are read as plain text.
func FormatFromExt(ext string) Format {
	switch ext {
	case ".docx":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// ExtractError reports a document whose bytes could not be read as its format.
type ExtractError struct {
	Source string
	Format Format
	Cause  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract %s text from %s: %v", e.Format, e.Source, e.Cause)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

func decode(source string, format Format, data []byte) (*Document, error) {
	var (
		text string
		err  error
	)
	switch format {
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatHTML:
		text, err = fetch.ExtractMainText(string(data), fetch.DefaultTextSelectors())
	default:
		return &Document{Source: source, Format: FormatText, Text: string(data)}, nil
	}
	if err != nil {
		return nil, &ExtractError{Source: source, Format: format, Cause: err}
	}
	return &Document{Source: source, Format: format, Text: CleanText(text)}, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText reduces WordprocessingML to its character data, one line per paragraph.
func paragraphText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				sb.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}
