package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/store"
)

type fakeStore struct {
	store.GraphStorage

	hashes     map[string]string
	saved      map[string]common.Chunk
	merged     map[string][]common.Triple
	mergeFails map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:     map[string]string{},
		saved:      map[string]common.Chunk{},
		merged:     map[string][]common.Triple{},
		mergeFails: map[string]error{},
	}
}

func (s *fakeStore) ChunkHashes(ctx context.Context, dataset string) (map[string]string, error) {
	out := make(map[string]string, len(s.hashes))
	for k, v := range s.hashes {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) SaveChunk(ctx context.Context, chunk common.Chunk, embedding []float32) error {
	s.saved[chunk.ID] = chunk
	s.hashes[chunk.ID] = chunk.Hash
	return nil
}

func (s *fakeStore) MergeTriples(ctx context.Context, chunkID string, triples []common.Triple, confidence float64) (*store.MergeStats, error) {
	if err := s.mergeFails[chunkID]; err != nil {
		return nil, err
	}
	s.merged[chunkID] = append(s.merged[chunkID], triples...)
	return &store.MergeStats{RelationsCreated: len(triples)}, nil
}

func buildTestClient(n int) *fakeAI {
	completions := make([]string, 0, n)
	for range n {
		completions = append(completions, `[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`)
	}
	return &fakeAI{completions: completions}
}

func TestBuildIngestsAllChunks(t *testing.T) {
	st := newFakeStore()
	text := strings.Repeat("Goats are ruminants. ", 40)

	b := NewGraphBuilder(NewGraphBuilderParams{
		Store:          st,
		AI:             buildTestClient(10),
		SegmentWindow:  400,
		SegmentOverlap: 40,
	})

	result, err := b.Build(context.Background(), "demo", "demo.txt", text)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if result.ChunksTotal != len(st.saved) {
		t.Errorf("saved %d chunks, result says %d", len(st.saved), result.ChunksTotal)
	}
	if result.ChunksSkipped != 0 || result.ChunksFailed != 0 {
		t.Errorf("skipped = %d, failed = %d, want 0/0", result.ChunksSkipped, result.ChunksFailed)
	}
	if len(st.merged) != result.ChunksTotal {
		t.Errorf("merged triples for %d chunks, want %d", len(st.merged), result.ChunksTotal)
	}
}

func TestBuildSkipsUnchangedChunks(t *testing.T) {
	st := newFakeStore()
	text := strings.Repeat("Goats are ruminants. ", 40)

	params := NewGraphBuilderParams{
		Store:          st,
		AI:             buildTestClient(10),
		SegmentWindow:  400,
		SegmentOverlap: 40,
	}

	first, err := NewGraphBuilder(params).Build(context.Background(), "demo", "demo.txt", text)
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}

	savedAfterFirst := len(st.saved)
	st.saved = map[string]common.Chunk{}

	params.AI = buildTestClient(10)
	second, err := NewGraphBuilder(params).Build(context.Background(), "demo", "demo.txt", text)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}

	if second.ChunksSkipped != first.ChunksTotal {
		t.Errorf("second run skipped %d chunks, want %d", second.ChunksSkipped, first.ChunksTotal)
	}
	if len(st.saved) != 0 {
		t.Errorf("second run rewrote %d of %d chunks", len(st.saved), savedAfterFirst)
	}
	// Extraction still ran on the skipped chunks.
	if len(st.merged) != second.ChunksTotal {
		t.Errorf("second run merged %d chunks, want %d", len(st.merged), second.ChunksTotal)
	}
}

func TestBuildIsolatesChunkFailure(t *testing.T) {
	st := newFakeStore()
	st.mergeFails["demo_chunk_00001"] = errors.New("deadlock detected")
	text := strings.Repeat("Goats are ruminants. ", 60)

	b := NewGraphBuilder(NewGraphBuilderParams{
		Store:          st,
		AI:             buildTestClient(20),
		SegmentWindow:  400,
		SegmentOverlap: 40,
	})

	result, err := b.Build(context.Background(), "demo", "demo.txt", text)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if result.ChunksFailed != 1 {
		t.Fatalf("failed = %d, want 1", result.ChunksFailed)
	}
	if _, ok := st.merged["demo_chunk_00001"]; ok {
		t.Error("failing chunk has merged triples")
	}
	if len(st.merged) != result.ChunksTotal-1 {
		t.Errorf("merged %d chunks, want %d", len(st.merged), result.ChunksTotal-1)
	}
}

func TestBuildReportsEmptyChunks(t *testing.T) {
	st := newFakeStore()
	text := strings.Repeat("Goats are ruminants. ", 40)

	// Chunk 1 extracts nothing on every attempt; its ID must show up in the
	// report while the run itself stays successful.
	completions := []string{
		`[{"head": "goat", "relation": "is_a", "tail": "ruminant"}]`,
	}
	for range extractAttempts {
		completions = append(completions, "[]")
	}
	completions = append(completions, `[{"head": "goat", "relation": "eats", "tail": "hay"}]`)

	b := NewGraphBuilder(NewGraphBuilderParams{
		Store:          st,
		AI:             &fakeAI{completions: completions},
		SegmentWindow:  400,
		SegmentOverlap: 40,
	})

	result, err := b.Build(context.Background(), "demo", "demo.txt", text)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if result.ChunksFailed != 0 {
		t.Errorf("failed = %d, want 0", result.ChunksFailed)
	}
	if len(result.EmptyChunks) != 1 || result.EmptyChunks[0] != "demo_chunk_00001" {
		t.Errorf("empty chunks = %v, want [demo_chunk_00001]", result.EmptyChunks)
	}
	if _, ok := st.merged["demo_chunk_00001"]; ok {
		t.Error("empty chunk has merged triples")
	}
	if len(st.merged) != result.ChunksTotal-1 {
		t.Errorf("merged %d chunks, want %d", len(st.merged), result.ChunksTotal-1)
	}
}

func TestBuildPassesExtractionModel(t *testing.T) {
	client := buildTestClient(1)

	b := NewGraphBuilder(NewGraphBuilderParams{
		Store:           newFakeStore(),
		AI:              client,
		ExtractionModel: "extract-model",
	})

	if _, err := b.Build(context.Background(), "demo", "demo.txt", "Goats are ruminants."); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(client.models) != 1 || client.models[0] != "extract-model" {
		t.Errorf("completion models = %v, want [extract-model]", client.models)
	}
}

func TestBuildStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewGraphBuilder(NewGraphBuilderParams{
		Store: newFakeStore(),
		AI:    buildTestClient(1),
	})

	if _, err := b.Build(ctx, "demo", "demo.txt", "Goats are ruminants."); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuildInvalidSegmentParams(t *testing.T) {
	b := NewGraphBuilder(NewGraphBuilderParams{
		Store:          newFakeStore(),
		AI:             buildTestClient(1),
		SegmentWindow:  100,
		SegmentOverlap: 100,
	})

	if _, err := b.Build(context.Background(), "demo", "demo.txt", "text"); !errors.Is(err, ErrInvalidSegmentParams) {
		t.Errorf("Build() error = %v, want ErrInvalidSegmentParams", err)
	}
}
