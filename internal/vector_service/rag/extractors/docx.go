package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/v2/document"

	"vectord/internal/vector_service/rag/interfaces"
)

// DocxExtractor extracts text from Word (.docx) files.
type DocxExtractor struct{}

// NewDocxExtractor creates a new DocxExtractor.
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Extract opens the document and joins the text of all paragraph runs,
// one line per paragraph.
func (e *DocxExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w from %s: %v", ErrExtraction, filename, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// compile-time check to ensure DocxExtractor implements the Extractor interface
var _ interfaces.Extractor = (*DocxExtractor)(nil)
