package splitters

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"vectord/internal/vector_service/rag/interfaces"
)

// defaultSeparators are tried largest-structure first: paragraph break,
// line break, word break. A hard character cut is the final fallback.
var defaultSeparators = []string{"\n\n", "\n", " "}

// CharacterSplitter implements the Splitter interface by cutting text into
// overlapping chunks of at most ChunkSize characters. Boundaries prefer
// structural separators so chunks end on a paragraph, line, or word where
// one falls in the later half of the window.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

// NewCharacterSplitter creates a new CharacterSplitter.
// ChunkOverlap must be smaller than ChunkSize so every chunk makes progress.
func NewCharacterSplitter(chunkSize, chunkOverlap int) (*CharacterSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// Split cuts text into an ordered sequence of chunks. The tail ChunkOverlap
// characters of each chunk are reused as the head of the next. Splitting is
// deterministic: the same text always yields the same boundaries. Empty
// input yields an empty sequence.
func (s *CharacterSplitter) Split(ctx context.Context, text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if start+s.ChunkSize >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end := start + s.cut(runes[start:start+s.ChunkSize])
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.ChunkOverlap
	}

	return chunks, nil
}

// cut returns the chunk length (in runes) for a full-size window, preferring
// the last structural separator in the window over a hard cut. Candidates in
// the early part of the window are rejected so chunks stay close to
// ChunkSize; the floor also keeps every cut larger than the overlap.
func (s *CharacterSplitter) cut(window []rune) int {
	floor := s.ChunkSize / 2
	if floor <= s.ChunkOverlap {
		floor = s.ChunkOverlap + 1
	}

	w := string(window)
	for _, sep := range s.separators {
		if i := strings.LastIndex(w, sep); i >= 0 {
			// Cut after the separator so it stays with the earlier chunk.
			n := utf8.RuneCountInString(w[:i+len(sep)])
			if n >= floor {
				return n
			}
		}
	}
	return s.ChunkSize
}

// compile-time check to ensure CharacterSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharacterSplitter)(nil)
