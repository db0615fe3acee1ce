package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vectord/internal/vector_service/rag/index"
	"vectord/internal/vector_service/rag/interfaces"
	"vectord/internal/vector_service/rag/schema"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/pkg/logger"
)

// embedBatchSize bounds one embedding request during a rebuild.
const embedBatchSize = 64

// DeletionPipeline removes a document and rebuilds the user's vector index
// from the surviving chunks. The flat index has no row-deletion primitive,
// so deletion is always a full rebuild.
type DeletionPipeline struct {
	embedder interfaces.EmbeddingModel
	store    *indexstore.Store
	log      *logger.Logger
}

// NewDeletionPipeline creates a new DeletionPipeline.
func NewDeletionPipeline(embedder interfaces.EmbeddingModel, store *indexstore.Store, log *logger.Logger) *DeletionPipeline {
	return &DeletionPipeline{embedder: embedder, store: store, log: log}
}

// Run deletes documentID from the user's namespace. When no chunks survive,
// the persisted index and metadata are removed entirely rather than saving
// empty structures. The caller serializes Run per user.
func (p *DeletionPipeline) Run(ctx context.Context, documentID, username string) error {
	log := p.log.WithUser(username)

	idx, meta, err := p.store.Load(username)
	if err != nil {
		return err
	}
	if idx == nil {
		return ErrNotFound
	}
	if _, ok := meta.Documents[documentID]; !ok {
		return ErrNotFound
	}

	// Drop the document's chunks; all other chunks keep their relative
	// order. Filtering by document id rather than the recorded start/end
	// range stays correct even after earlier deletions shifted positions.
	surviving := make([]schema.Chunk, 0, len(meta.Chunks))
	for _, chunk := range meta.Chunks {
		if chunk.DocumentID != documentID {
			surviving = append(surviving, chunk)
		}
	}
	meta.Chunks = surviving
	delete(meta.Documents, documentID)

	if len(surviving) == 0 {
		if err := p.store.Remove(username); err != nil {
			return err
		}
		log.Info(fmt.Sprintf("Deleted document %s; removed empty index", documentID))
		return nil
	}

	recomputeRanges(meta)

	vectors, err := p.survivingVectors(ctx, surviving)
	if err != nil {
		return err
	}

	rebuilt, err := index.NewFlat(idx.Dimension())
	if err != nil {
		return err
	}
	if err := rebuilt.Add(vectors); err != nil {
		return err
	}
	for i := range meta.Chunks {
		meta.Chunks[i].Embedding = vectors[i]
	}

	if err := p.store.Save(username, rebuilt, meta); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("Deleted document %s; rebuilt index over %d chunks", documentID, len(surviving)))
	return nil
}

// survivingVectors assembles the rebuild's vectors in chunk-list order.
// Vectors cached on the chunks are reused; chunks persisted by older layouts
// without one are re-embedded, batched and in parallel, each batch written
// back to its own positions.
func (p *DeletionPipeline) survivingVectors(ctx context.Context, chunks []schema.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	var missing []int
	for i, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			vectors[i] = chunk.Embedding
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return vectors, nil
	}
	if p.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}

	eg, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(missing); start += embedBatchSize {
		batch := missing[start:min(start+embedBatchSize, len(missing))]
		eg.Go(func() error {
			texts := make([]string, len(batch))
			for i, pos := range batch {
				texts[i] = chunks[pos].Content
			}
			embeddings, err := p.embedder.EmbedBatch(gCtx, texts)
			if err != nil {
				return fmt.Errorf("failed to re-embed chunks: %w", err)
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("embedding backend returned %d vectors for %d chunks", len(embeddings), len(batch))
			}
			for i, pos := range batch {
				vectors[pos] = embeddings[i]
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// recomputeRanges rewrites every document's start/end to its chunk range in
// the current list, keeping the recorded ranges valid after removals.
func recomputeRanges(meta *schema.Metadata) {
	type span struct{ start, end int }
	spans := make(map[string]span, len(meta.Documents))
	for i, chunk := range meta.Chunks {
		s, ok := spans[chunk.DocumentID]
		if !ok {
			s = span{start: i, end: i + 1}
		} else {
			s.end = i + 1
		}
		spans[chunk.DocumentID] = s
	}
	for id, doc := range meta.Documents {
		if s, ok := spans[id]; ok {
			doc.StartIndex = s.start
			doc.EndIndex = s.end
			meta.Documents[id] = doc
		}
	}
}
