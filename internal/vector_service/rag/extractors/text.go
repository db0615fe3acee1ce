package extractors

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"vectord/internal/vector_service/rag/interfaces"
)

// TextExtractor treats file bytes as UTF-8 plain text. It is the fallback
// for every extension without a dedicated extractor.
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract validates that the content really is text before returning it.
// Binary payloads renamed to .txt would otherwise be chunked and indexed as
// garbage.
func (e *TextExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w from %s: content is not valid UTF-8", ErrExtraction, filename)
	}
	if !isTextContent(data) {
		return "", fmt.Errorf("%w from %s: binary content cannot be read as text", ErrExtraction, filename)
	}
	return string(data), nil
}

// isTextContent reports whether the detected MIME type descends from
// text/plain.
func isTextContent(data []byte) bool {
	for mtype := mimetype.Detect(data); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("text/plain") {
			return true
		}
	}
	return false
}

// compile-time check to ensure TextExtractor implements the Extractor interface
var _ interfaces.Extractor = (*TextExtractor)(nil)
