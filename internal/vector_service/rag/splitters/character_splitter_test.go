package splitters

import (
	"context"
	"strings"
	"testing"
)

func TestNewCharacterSplitter_Validation(t *testing.T) {
	if _, err := NewCharacterSplitter(0, 0); err == nil {
		t.Error("Expected error for zero chunk size")
	}
	if _, err := NewCharacterSplitter(100, 100); err == nil {
		t.Error("Expected error for overlap equal to chunk size")
	}
	if _, err := NewCharacterSplitter(100, -1); err == nil {
		t.Error("Expected error for negative overlap")
	}
}

func TestSplit_Empty(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	chunks, err := s.Split(context.Background(), "")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplit_ThreeThousandCharacters(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	text := strings.Repeat("a", 3000)
	chunks, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	// Hard cuts at 1000 with 200 overlap: [0,1000) [800,1800) [1600,2600) [2400,3000).
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:3] {
		if len(chunk) != 1000 {
			t.Errorf("Chunk %d has length %d, expected 1000", i, len(chunk))
		}
	}
	if len(chunks[3]) != 600 {
		t.Errorf("Last chunk has length %d, expected 600", len(chunks[3]))
	}
}

func TestSplit_OverlapReusesTail(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	text := strings.Repeat("abcdefghij", 300)
	chunks, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-200:]
		head := chunks[i][:200]
		if prevTail != head {
			t.Errorf("Chunk %d head does not reuse the previous chunk's tail", i)
		}
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	// A paragraph break at character 900 falls in the later half of the
	// window, so the first chunk should end there rather than at 1000.
	text := strings.Repeat("a", 898) + "\n\n" + strings.Repeat("b", 1500)
	chunks, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(chunks[0]) != 900 {
		t.Errorf("First chunk has length %d, expected 900 (paragraph cut)", len(chunks[0]))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Error("First chunk should end with the paragraph separator")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 120)
	first, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	second, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs across runs", i)
		}
	}
}

func TestSplit_MultiByteRunes(t *testing.T) {
	s, err := NewCharacterSplitter(100, 20)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}

	text := strings.Repeat("日本語のテキスト", 50)
	chunks, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if !strings.HasPrefix(text, chunks[0]) {
		t.Error("First chunk is not a prefix of the input")
	}
	for i, chunk := range chunks {
		for _, r := range chunk {
			if r == '�' {
				t.Fatalf("Chunk %d contains a replacement rune: split mid-character", i)
			}
		}
	}
}
