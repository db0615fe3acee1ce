package pipeline

import "errors"

var (
	// ErrNoContent is returned when an uploaded file yields zero chunks.
	ErrNoContent = errors.New("no text content found in file")

	// ErrEmbeddingUnavailable is returned when the embedding backend is not
	// configured. It short-circuits ingestion and search before any index
	// read or mutation.
	ErrEmbeddingUnavailable = errors.New("embedding backend not configured")

	// ErrNotFound is returned when a document id is absent from the user's
	// metadata.
	ErrNotFound = errors.New("document not found")
)
