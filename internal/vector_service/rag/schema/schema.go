package schema

import "time"

// ChunkMetadata is the provenance attached to every indexed chunk and
// returned verbatim with search results.
type ChunkMetadata struct {
	Filename    string `json:"filename"`
	ChunkNumber int    `json:"chunk_number"`
	TotalChunks int    `json:"total_chunks"`
}

// Chunk is a bounded span of a document's extracted text. Its position in
// the metadata chunk list is also its row in the vector index; that coupling
// is the row-count invariant the store enforces.
type Chunk struct {
	DocumentID string        `json:"document_id"`
	ChunkIndex int           `json:"chunk_index"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`

	// Embedding caches the vector that was indexed for this chunk, so a
	// later index rebuild does not have to call the embedding backend again.
	Embedding []float32 `json:"embedding,omitempty"`
}

// Document describes one uploaded file. StartIndex/EndIndex is the half-open
// range of the document's chunks within the flat chunk list at insertion
// time. Immutable once created except for deletion.
type Document struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Chunks     int       `json:"chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
}

// Metadata is the JSON half of a user's persisted index pair.
type Metadata struct {
	Documents map[string]Document `json:"documents"`
	Chunks    []Chunk             `json:"chunks"`
}

// NewMetadata returns an empty metadata document ready for appends.
func NewMetadata() *Metadata {
	return &Metadata{
		Documents: make(map[string]Document),
		Chunks:    []Chunk{},
	}
}

// SearchResult is one ranked retrieval hit.
type SearchResult struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float32       `json:"score"`
}

// DocumentInfo is the listing view of a stored document.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Chunks     int       `json:"chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}
