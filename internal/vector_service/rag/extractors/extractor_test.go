package extractors

import (
	"context"
	"errors"
	"testing"
)

func TestFormatForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"report.pdf", FormatPDF},
		{"Report.PDF", FormatPDF},
		{"notes.docx", FormatDocx},
		{"readme.txt", FormatText},
		{"readme.md", FormatText},
		{"no-extension", FormatText},
		{"archive.tar.pdf", FormatPDF},
	}
	for _, tt := range tests {
		if got := FormatForFilename(tt.filename); got != tt.want {
			t.Errorf("FormatForFilename(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestTextExtractor(t *testing.T) {
	e := NewTextExtractor()

	text, err := e.Extract(context.Background(), []byte("hello world"), "notes.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Extract() = %q", text)
	}
}

func TestTextExtractor_Empty(t *testing.T) {
	e := NewTextExtractor()

	text, err := e.Extract(context.Background(), nil, "empty.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Errorf("Extract() = %q, expected empty", text)
	}
}

func TestTextExtractor_RejectsInvalidUTF8(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, "notes.txt")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, expected ErrExtraction", err)
	}
}

func TestTextExtractor_RejectsBinaryContent(t *testing.T) {
	e := NewTextExtractor()

	// A PDF header is valid UTF-8 but detected as application/pdf, which
	// does not descend from text/plain.
	pdf := []byte("%PDF-1.4 renamed to txt")
	if _, err := e.Extract(context.Background(), pdf, "sneaky.txt"); !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, expected ErrExtraction", err)
	}
}

func TestPdfExtractor_RejectsGarbage(t *testing.T) {
	e := NewPdfExtractor()

	_, err := e.Extract(context.Background(), []byte("this is not a pdf"), "fake.pdf")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, expected ErrExtraction", err)
	}
}

func TestDocxExtractor_RejectsGarbage(t *testing.T) {
	e := NewDocxExtractor()

	_, err := e.Extract(context.Background(), []byte("this is not a docx"), "fake.docx")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, expected ErrExtraction", err)
	}
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	r := NewRegistry()

	text, err := r.Extract(context.Background(), []byte("plain content"), "notes.md")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "plain content" {
		t.Errorf("Extract() = %q", text)
	}

	// Same bytes routed to the PDF extractor must fail.
	if _, err := r.Extract(context.Background(), []byte("plain content"), "notes.pdf"); !errors.Is(err, ErrExtraction) {
		t.Fatalf("Extract() error = %v, expected ErrExtraction", err)
	}
}
