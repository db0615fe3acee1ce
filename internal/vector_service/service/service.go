package service

import (
	"context"
	"os"
	"sort"
	"sync"

	"vectord/internal/vector_service/rag/interfaces"
	"vectord/internal/vector_service/rag/pipeline"
	"vectord/internal/vector_service/rag/schema"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/pkg/logger"
)

// Service exposes the vector document operations behind the HTTP surface.
// All operations touching one user's index/metadata pair run under that
// user's lock, so load→mutate→save sequences never interleave and the
// index row count stays in step with the chunk list. Different users
// proceed in parallel.
type Service struct {
	ingestion *pipeline.IngestionPipeline
	retrieval *pipeline.RetrievalPipeline
	deletion  *pipeline.DeletionPipeline
	store     *indexstore.Store
	embedder  interfaces.EmbeddingModel
	log       *logger.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewService wires the three pipelines over a shared store and embedder.
// embedder may be nil when the backend is unconfigured; operations needing
// it then fail with pipeline.ErrEmbeddingUnavailable.
func NewService(
	extractor interfaces.Extractor,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	store *indexstore.Store,
	log *logger.Logger,
) *Service {
	return &Service{
		ingestion: pipeline.NewIngestionPipeline(extractor, splitter, embedder, store, log),
		retrieval: pipeline.NewRetrievalPipeline(embedder, store, log),
		deletion:  pipeline.NewDeletionPipeline(embedder, store, log),
		store:     store,
		embedder:  embedder,
		log:       log,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex guarding one user's namespace. Locks are never
// evicted; one mutex per seen user is cheap.
func (s *Service) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[username]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[username] = l
	}
	return l
}

// Ingest uploads one file into the user's namespace.
func (s *Service) Ingest(ctx context.Context, data []byte, filename, username string) (*schema.IngestResult, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.ingestion.Run(ctx, data, filename, username)
}

// Search returns up to topK ranked snippets for the query.
func (s *Service) Search(ctx context.Context, query, username string, topK int) ([]schema.SearchResult, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.retrieval.Run(ctx, query, username, topK)
}

// Delete removes a document and rebuilds the user's index.
func (s *Service) Delete(ctx context.Context, documentID, username string) error {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()
	return s.deletion.Run(ctx, documentID, username)
}

// ListDocuments returns the user's documents, oldest upload first.
func (s *Service) ListDocuments(ctx context.Context, username string) ([]schema.DocumentInfo, error) {
	l := s.userLock(username)
	l.Lock()
	defer l.Unlock()

	_, meta, err := s.store.Load(username)
	if err != nil {
		return nil, err
	}

	documents := make([]schema.DocumentInfo, 0, len(meta.Documents))
	for id, doc := range meta.Documents {
		documents = append(documents, schema.DocumentInfo{
			ID:         id,
			Filename:   doc.Filename,
			Size:       doc.Size,
			Chunks:     doc.Chunks,
			UploadedAt: doc.UploadedAt,
		})
	}
	sort.Slice(documents, func(i, j int) bool {
		if !documents[i].UploadedAt.Equal(documents[j].UploadedAt) {
			return documents[i].UploadedAt.Before(documents[j].UploadedAt)
		}
		return documents[i].ID < documents[j].ID
	})

	return documents, nil
}

// HealthStatus reports the service's external dependencies.
type HealthStatus struct {
	Status              string `json:"status"`
	Service             string `json:"service"`
	EmbeddingConfigured bool   `json:"embedding_configured"`
	StoragePath         string `json:"storage_path"`
	StorageReachable    bool   `json:"storage_reachable"`
}

// Health reports embedding-backend configuration and storage reachability.
func (s *Service) Health(ctx context.Context) HealthStatus {
	_, statErr := os.Stat(s.store.BasePath())
	return HealthStatus{
		Status:              "healthy",
		Service:             "vector",
		EmbeddingConfigured: s.embedder != nil,
		StoragePath:         s.store.BasePath(),
		StorageReachable:    statErr == nil,
	}
}
