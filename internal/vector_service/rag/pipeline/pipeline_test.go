package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"vectord/internal/vector_service/rag/extractors"
	"vectord/internal/vector_service/rag/splitters"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/pkg/logger"
)

// stubEmbedder maps each distinct text to a deterministic unit vector, so
// identical texts have inner product 1 and differing texts score lower.
type stubEmbedder struct {
	batchCalls int
	batchSizes []int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	angle := float64(h.Sum32()%3600) / 3600 * 2 * math.Pi
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batchCalls++
	s.batchSizes = append(s.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := s.Embed(ctx, text)
		vectors[i] = v
	}
	return vectors, nil
}

// failingEmbedder simulates an unreachable backend.
type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("backend unreachable")
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("backend unreachable")
}

type testEnv struct {
	store     *indexstore.Store
	ingestion *IngestionPipeline
	retrieval *RetrievalPipeline
	deletion  *DeletionPipeline
	embedder  *stubEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("test")
	store, err := indexstore.NewStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	splitter, err := splitters.NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}
	embedder := &stubEmbedder{}
	return &testEnv{
		store:     store,
		ingestion: NewIngestionPipeline(extractors.NewRegistry(), splitter, embedder, store, log),
		retrieval: NewRetrievalPipeline(embedder, store, log),
		deletion:  NewDeletionPipeline(embedder, store, log),
		embedder:  embedder,
	}
}

func TestIngest_RowCountInvariant(t *testing.T) {
	env := newTestEnv(t)

	text := strings.Repeat("a", 3000)
	result, err := env.ingestion.Run(context.Background(), []byte(text), "notes.txt", "alice")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ChunksCreated != 4 {
		t.Errorf("ChunksCreated = %d, expected 4", result.ChunksCreated)
	}

	idx, meta, err := env.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if idx == nil {
		t.Fatal("Expected a persisted index")
	}
	if idx.Len() != len(meta.Chunks) {
		t.Errorf("Row count invariant broken: %d rows vs %d chunks", idx.Len(), len(meta.Chunks))
	}

	doc, ok := meta.Documents[result.DocumentID]
	if !ok {
		t.Fatal("Document entry missing from metadata")
	}
	if doc.StartIndex != 0 || doc.EndIndex != 4 {
		t.Errorf("Document range = [%d,%d), expected [0,4)", doc.StartIndex, doc.EndIndex)
	}
	for i, chunk := range meta.Chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("Chunk %d has chunk_index %d, expected %d", i, chunk.ChunkIndex, i)
		}
		if chunk.Metadata.TotalChunks != 4 || chunk.Metadata.ChunkNumber != i+1 {
			t.Errorf("Chunk %d has metadata %+v", i, chunk.Metadata)
		}
	}
}

func TestIngest_SingleBatchEmbedding(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.ingestion.Run(context.Background(), []byte(strings.Repeat("a", 3000)), "notes.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.embedder.batchCalls != 1 {
		t.Errorf("Expected one batch embedding call, got %d", env.embedder.batchCalls)
	}
	if env.embedder.batchSizes[0] != 4 {
		t.Errorf("Expected all 4 chunks in one batch, got %d", env.embedder.batchSizes[0])
	}
}

func TestIngest_AppendsAfterExistingDocument(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.ingestion.Run(context.Background(), []byte(strings.Repeat("a", 3000)), "a.txt", "alice")
	if err != nil {
		t.Fatalf("First Run() error = %v", err)
	}
	second, err := env.ingestion.Run(context.Background(), []byte("short document"), "b.txt", "alice")
	if err != nil {
		t.Fatalf("Second Run() error = %v", err)
	}

	_, meta, _ := env.store.Load("alice")
	docB := meta.Documents[second.DocumentID]
	if docB.StartIndex != 4 || docB.EndIndex != 5 {
		t.Errorf("Second document range = [%d,%d), expected [4,5)", docB.StartIndex, docB.EndIndex)
	}
	docA := meta.Documents[first.DocumentID]
	if docA.StartIndex != 0 || docA.EndIndex != 4 {
		t.Errorf("First document range changed to [%d,%d)", docA.StartIndex, docA.EndIndex)
	}
}

func TestIngest_EmbeddingUnavailable(t *testing.T) {
	env := newTestEnv(t)
	log := logger.New("test")
	ingestion := NewIngestionPipeline(extractors.NewRegistry(), mustSplitter(t), nil, env.store, log)

	_, err := ingestion.Run(context.Background(), []byte("hello"), "notes.txt", "alice")
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("Run() error = %v, expected ErrEmbeddingUnavailable", err)
	}

	idx, _, _ := env.store.Load("alice")
	if idx != nil {
		t.Error("Nothing may be persisted when the backend is unconfigured")
	}
}

func TestIngest_NoContent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestion.Run(context.Background(), []byte(""), "empty.txt", "alice")
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("Run() error = %v, expected ErrNoContent", err)
	}
}

func TestIngest_ExtractionFailureLeavesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ingestion.Run(context.Background(), []byte{0xff, 0xfe, 0x00, 0x01}, "data.txt", "alice")
	if !errors.Is(err, extractors.ErrExtraction) {
		t.Fatalf("Run() error = %v, expected ErrExtraction", err)
	}

	idx, _, _ := env.store.Load("alice")
	if idx != nil {
		t.Error("Nothing may be persisted after a failed extraction")
	}
}

func TestIngest_EmbeddingFailureLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	log := logger.New("test")
	ingestion := NewIngestionPipeline(extractors.NewRegistry(), mustSplitter(t), &failingEmbedder{}, env.store, log)

	_, err := ingestion.Run(context.Background(), []byte("some text"), "notes.txt", "alice")
	if err == nil {
		t.Fatal("Expected error from failing backend")
	}

	idx, _, _ := env.store.Load("alice")
	if idx != nil {
		t.Error("Nothing may be persisted after a failed embedding call")
	}
}

func TestSearch_EmptyUser(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.retrieval.Run(context.Background(), "anything", "nobody", 5)
	if err != nil {
		t.Fatalf("Run() error = %v, expected empty results without error", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}
}

func TestSearch_TopKBound(t *testing.T) {
	env := newTestEnv(t)

	// 1200 characters split 1000/200 into exactly 2 chunks.
	if _, err := env.ingestion.Run(context.Background(), []byte(strings.Repeat("b", 1200)), "b.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results, err := env.retrieval.Run(context.Background(), "query", "alice", 5)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected min(top_k, chunks) = 2 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("Results are not in score-descending order")
		}
	}
}

func TestSearch_RanksExactMatchFirst(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.ingestion.Run(context.Background(), []byte("alpha document"), "a.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := env.ingestion.Run(context.Background(), []byte("bravo document"), "b.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results, err := env.retrieval.Run(context.Background(), "bravo document", "alice", 2)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Content != "bravo document" {
		t.Errorf("Top result = %q, expected the exact match", results[0].Content)
	}
	if results[0].Metadata.Filename != "b.txt" {
		t.Errorf("Top result filename = %q, expected b.txt", results[0].Metadata.Filename)
	}
}

func TestSearch_EmbeddingUnavailable(t *testing.T) {
	env := newTestEnv(t)
	retrieval := NewRetrievalPipeline(nil, env.store, logger.New("test"))

	_, err := retrieval.Run(context.Background(), "query", "alice", 5)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("Run() error = %v, expected ErrEmbeddingUnavailable", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)

	if err := env.deletion.Run(context.Background(), "missing-id", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run() error = %v, expected ErrNotFound", err)
	}

	if _, err := env.ingestion.Run(context.Background(), []byte("some text"), "a.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := env.deletion.Run(context.Background(), "missing-id", "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run() error = %v, expected ErrNotFound", err)
	}
}

func TestDelete_LastDocumentRemovesFiles(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.ingestion.Run(context.Background(), []byte("only document"), "a.txt", "alice")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := env.deletion.Run(context.Background(), result.DocumentID, "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	idx, meta, err := env.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if idx != nil || len(meta.Chunks) != 0 || len(meta.Documents) != 0 {
		t.Error("Deleting the only document must return the namespace to its pre-ingestion state")
	}
}

func TestDelete_RebuildsOverSurvivors(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.ingestion.Run(context.Background(), []byte(strings.Repeat("a", 3000)), "a.txt", "alice")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := env.ingestion.Run(context.Background(), []byte("bravo document"), "b.txt", "alice")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := env.deletion.Run(context.Background(), first.DocumentID, "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	idx, meta, err := env.store.Load("alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if idx.Len() != len(meta.Chunks) {
		t.Errorf("Row count invariant broken after rebuild: %d rows vs %d chunks", idx.Len(), len(meta.Chunks))
	}
	if len(meta.Chunks) != 1 {
		t.Fatalf("Expected 1 surviving chunk, got %d", len(meta.Chunks))
	}
	if _, ok := meta.Documents[first.DocumentID]; ok {
		t.Error("Deleted document still registered")
	}
	doc := meta.Documents[second.DocumentID]
	if doc.StartIndex != 0 || doc.EndIndex != 1 {
		t.Errorf("Surviving document range = [%d,%d), expected [0,1)", doc.StartIndex, doc.EndIndex)
	}

	// Search still maps rows to the surviving chunk.
	results, err := env.retrieval.Run(context.Background(), "bravo document", "alice", 5)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 1 || results[0].Content != "bravo document" {
		t.Errorf("Search after delete returned %+v", results)
	}
}

func TestDelete_ReusesStoredEmbeddings(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.ingestion.Run(context.Background(), []byte(strings.Repeat("a", 3000)), "a.txt", "alice")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := env.ingestion.Run(context.Background(), []byte("bravo document"), "b.txt", "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := env.embedder.batchCalls
	if err := env.deletion.Run(context.Background(), first.DocumentID, "alice"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if env.embedder.batchCalls != calls {
		t.Errorf("Rebuild called the embedding backend %d extra times; stored vectors should be reused",
			env.embedder.batchCalls-calls)
	}
}

func mustSplitter(t *testing.T) *splitters.CharacterSplitter {
	t.Helper()
	s, err := splitters.NewCharacterSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharacterSplitter() error = %v", err)
	}
	return s
}
