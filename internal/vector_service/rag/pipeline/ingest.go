package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vectord/internal/vector_service/rag/index"
	"vectord/internal/vector_service/rag/interfaces"
	"vectord/internal/vector_service/rag/schema"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/pkg/logger"
)

// IngestionPipeline orchestrates extract → chunk → embed → index append for
// one uploaded file. Every stage short-circuits on failure: nothing is
// persisted unless the final save succeeds.
type IngestionPipeline struct {
	extractor interfaces.Extractor
	splitter  interfaces.Splitter
	embedder  interfaces.EmbeddingModel
	store     *indexstore.Store
	log       *logger.Logger
}

// NewIngestionPipeline creates a new IngestionPipeline. The embedder may be
// nil when the backend is unconfigured; Run then fails with
// ErrEmbeddingUnavailable before touching any state.
func NewIngestionPipeline(
	extractor interfaces.Extractor,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	store *indexstore.Store,
	log *logger.Logger,
) *IngestionPipeline {
	return &IngestionPipeline{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		log:       log,
	}
}

// Run ingests one file into the user's namespace and returns the new
// document entry. The caller serializes Run per user.
func (p *IngestionPipeline) Run(ctx context.Context, data []byte, filename, username string) (*schema.IngestResult, error) {
	log := p.log.WithUser(username)

	if p.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}

	// 1. Extract plain text.
	text, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to extract text from %s: %v", filename, err))
		return nil, err
	}

	// 2. Chunk. An empty sequence aborts before any embedding call.
	chunks, err := p.splitter.Split(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	// 3. Embed all chunks in one order-preserving batch.
	embeddings, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to embed %d chunks: %v", len(chunks), err))
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	// 4. Load existing state; create the index lazily, sized to the first
	// batch's vector width.
	idx, meta, err := p.store.Load(username)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		idx, err = index.NewFlat(len(embeddings[0]))
		if err != nil {
			return nil, err
		}
	}

	// 5. Append chunks and vectors in the same order. Chunk list position i
	// must stay in step with vector row i.
	documentID := uuid.New().String()
	startIndex := len(meta.Chunks)

	if err := idx.Add(embeddings); err != nil {
		return nil, err
	}
	for i, content := range chunks {
		meta.Chunks = append(meta.Chunks, schema.Chunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    content,
			Metadata: schema.ChunkMetadata{
				Filename:    filename,
				ChunkNumber: i + 1,
				TotalChunks: len(chunks),
			},
			Embedding: embeddings[i],
		})
	}

	// 6. Register the document entry.
	meta.Documents[documentID] = schema.Document{
		Filename:   filename,
		Size:       int64(len(data)),
		Chunks:     len(chunks),
		UploadedAt: time.Now().UTC(),
		StartIndex: startIndex,
		EndIndex:   startIndex + len(chunks),
	}

	// 7. Persist. The ingestion only counts once the save lands.
	if err := p.store.Save(username, idx, meta); err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("Indexed %s as document %s (%d chunks)", filename, documentID, len(chunks)))
	return &schema.IngestResult{
		DocumentID:    documentID,
		Filename:      filename,
		ChunksCreated: len(chunks),
	}, nil
}
