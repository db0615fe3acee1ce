package pipeline

import (
	"context"
	"fmt"

	"vectord/internal/vector_service/rag/interfaces"
	"vectord/internal/vector_service/rag/schema"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/pkg/logger"
)

// RetrievalPipeline orchestrates query embedding and exact nearest-neighbor
// search over a user's index.
type RetrievalPipeline struct {
	embedder interfaces.EmbeddingModel
	store    *indexstore.Store
	log      *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, store *indexstore.Store, log *logger.Logger) *RetrievalPipeline {
	return &RetrievalPipeline{embedder: embedder, store: store, log: log}
}

// Run returns up to topK chunks ranked by inner-product score descending.
// A user with no index gets an empty result list, not an error.
func (p *RetrievalPipeline) Run(ctx context.Context, query, username string, topK int) ([]schema.SearchResult, error) {
	if p.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}

	idx, meta, err := p.store.Load(username)
	if err != nil {
		return nil, err
	}
	if idx == nil || len(meta.Chunks) == 0 {
		return []schema.SearchResult{}, nil
	}

	queryVector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		p.log.WithUser(username).Error(fmt.Sprintf("Failed to embed query: %v", err))
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	k := topK
	if k > len(meta.Chunks) {
		k = len(meta.Chunks)
	}
	matches, err := idx.Search(queryVector, k)
	if err != nil {
		return nil, err
	}

	results := make([]schema.SearchResult, 0, len(matches))
	for _, m := range matches {
		// Rows past the chunk list would mean index/metadata skew; skip
		// rather than fail the whole search.
		if m.Row < 0 || m.Row >= len(meta.Chunks) {
			p.log.WithUser(username).Warn(fmt.Sprintf("Search returned row %d outside chunk list of %d", m.Row, len(meta.Chunks)))
			continue
		}
		chunk := meta.Chunks[m.Row]
		results = append(results, schema.SearchResult{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			Score:    m.Score,
		})
	}

	return results, nil
}
