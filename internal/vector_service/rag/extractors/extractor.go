package extractors

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"vectord/internal/vector_service/rag/interfaces"
)

// ErrExtraction is returned when a file's bytes cannot be parsed as the
// format its extension claims. Callers surface it as a client error and
// abort ingestion before any index mutation.
var ErrExtraction = errors.New("failed to extract text")

// Format identifies a supported document format.
type Format int

const (
	// FormatText is the fallback for any unrecognized extension.
	FormatText Format = iota
	FormatPDF
	FormatDocx
)

// FormatForFilename resolves a format from the lowercase file extension.
func FormatForFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDocx
	default:
		return FormatText
	}
}

// Registry dispatches extraction to one extractor per format.
type Registry struct {
	extractors map[Format]interfaces.Extractor
}

// NewRegistry creates a registry with all supported formats registered.
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[Format]interfaces.Extractor{
			FormatPDF:  NewPdfExtractor(),
			FormatDocx: NewDocxExtractor(),
			FormatText: NewTextExtractor(),
		},
	}
}

// Extract converts raw file bytes into plain text, choosing the extractor
// by the filename's extension.
func (r *Registry) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return r.extractors[FormatForFilename(filename)].Extract(ctx, data, filename)
}

// compile-time check to ensure Registry implements the Extractor interface
var _ interfaces.Extractor = (*Registry)(nil)
