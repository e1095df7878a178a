// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not PDF files.
	ErrUnsupportedFormat = errors.New("only PDF files are supported")
	// ErrExtractionFailed is returned when a PDF cannot be parsed.
	ErrExtractionFailed = errors.New("failed to extract document text")
)

// Result is the plain text pulled from a document plus its unit count.
type Result struct {
	Text  string
	Pages int
}

// PDFExtractor extracts text from PDF uploads. It is stateless.
type PDFExtractor struct{}

// Extract parses data as a PDF and concatenates the text of every page.
// The filename is only used to reject non-PDF uploads up front.
func (PDFExtractor) Extract(filename string, data []byte) (result *Result, err error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, ErrUnsupportedFormat
	}

	// The pdf parser panics on some malformed files instead of returning
	// an error; treat that the same as a parse failure.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var text strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, i, err)
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	return &Result{Text: text.String(), Pages: pages}, nil
}
