package interfaces

import "context"

// Extractor converts an uploaded file's raw bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Splitter cuts plain text into an ordered sequence of bounded,
// overlapping spans suitable for embedding.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// EmbeddingModel is the capability interface for the external embedding
// backend. EmbedBatch is order-preserving: one vector per input text, all of
// the same dimension.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
