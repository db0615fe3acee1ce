package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"vectord/internal/vector_service/rag/interfaces"
)

// PdfExtractor extracts text from PDF files, page by page, concatenated in
// page order.
type PdfExtractor struct{}

// NewPdfExtractor creates a new PdfExtractor.
func NewPdfExtractor() *PdfExtractor {
	return &PdfExtractor{}
}

// Extract parses the PDF and returns the plain text of all pages in order.
func (e *PdfExtractor) Extract(ctx context.Context, data []byte, filename string) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w from %s: %v", ErrExtraction, filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w from %s: %v", ErrExtraction, filename, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w from %s: page %d: %v", ErrExtraction, filename, i, err)
		}
		sb.WriteString(pageText)
	}

	return sb.String(), nil
}

// compile-time check to ensure PdfExtractor implements the Extractor interface
var _ interfaces.Extractor = (*PdfExtractor)(nil)
