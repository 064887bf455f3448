package augment

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/store"
)

type fakeAI struct {
	completion string
	formatJSON string
	prompts    []string
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.completion == "" {
		return "[]", nil
	}
	return f.completion, nil
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	f.prompts = append(f.prompts, prompt)
	return json.Unmarshal([]byte(f.formatJSON), out)
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return make([]float32, 4), nil
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeStore struct {
	store.GraphStorage

	entities  []common.Entity
	relations []common.Relation
	degrees   map[string]int
	chunks    []common.Chunk
	mentions  map[string][]string

	mergedNames      map[string][]string
	mergedTriples    map[string][]common.Triple
	mergedConfidence float64
	deletedRelations []int64
	deletedEntities  []int64
	isolatedRemoved  int
	backfilled       int
}

func (s *fakeStore) BackfillRelationProvenance(ctx context.Context, dataset string) (int, error) {
	return s.backfilled, nil
}

func (s *fakeStore) ListEntities(ctx context.Context, dataset string) ([]common.Entity, error) {
	return s.entities, nil
}

func (s *fakeStore) ListRelations(ctx context.Context, dataset string) ([]common.Relation, error) {
	return s.relations, nil
}

func (s *fakeStore) EntityDegrees(ctx context.Context, dataset string) (map[string]int, error) {
	return s.degrees, nil
}

func (s *fakeStore) GetChunks(ctx context.Context, dataset string) ([]common.Chunk, error) {
	return s.chunks, nil
}

func (s *fakeStore) ChunkEntities(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	return s.mentions, nil
}

func (s *fakeStore) MergeEntityNames(ctx context.Context, canonical string, duplicates []string) error {
	if s.mergedNames == nil {
		s.mergedNames = map[string][]string{}
	}
	s.mergedNames[canonical] = append(s.mergedNames[canonical], duplicates...)
	return nil
}

func (s *fakeStore) MergeTriples(ctx context.Context, chunkID string, triples []common.Triple, confidence float64) (*store.MergeStats, error) {
	if s.mergedTriples == nil {
		s.mergedTriples = map[string][]common.Triple{}
	}
	s.mergedTriples[chunkID] = append(s.mergedTriples[chunkID], triples...)
	s.mergedConfidence = confidence
	return &store.MergeStats{RelationsCreated: len(triples)}, nil
}

func (s *fakeStore) DeleteIsolatedEntities(ctx context.Context, dataset string) (int, error) {
	return s.isolatedRemoved, nil
}

func (s *fakeStore) DeleteRelations(ctx context.Context, ids []int64) error {
	s.deletedRelations = append(s.deletedRelations, ids...)
	return nil
}

func (s *fakeStore) DeleteEntities(ctx context.Context, ids []int64) error {
	s.deletedEntities = append(s.deletedEntities, ids...)
	return nil
}

func entity(id int64, name string) common.Entity {
	return common.Entity{ID: id, Name: name, CreatedAt: time.Now()}
}

func TestMergeSynonymEntities(t *testing.T) {
	st := &fakeStore{
		entities: []common.Entity{
			entity(1, "Goat"), entity(2, "Goats"), entity(3, "vitamin_A"),
		},
	}
	client := &fakeAI{
		formatJSON: `{"groups": [
			{"primary": "Goat", "synonyms": ["Goats", "Goat", "invented_name"]}
		]}`,
	}
	a := NewAugmenter(NewAugmenterParams{Store: st, AI: client})

	merged, err := a.MergeSynonymEntities(context.Background(), "demo")
	if err != nil {
		t.Fatalf("MergeSynonymEntities() error = %v", err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}
	if got := st.mergedNames["Goat"]; len(got) != 1 || got[0] != "Goats" {
		t.Errorf("merged names = %v, want [Goats]", got)
	}
	if !strings.Contains(client.prompts[0], "Goats") {
		t.Error("prompt does not carry the entity list")
	}
}

func TestMergeSynonymEntitiesTooFew(t *testing.T) {
	st := &fakeStore{entities: []common.Entity{entity(1, "Goat")}}
	a := NewAugmenter(NewAugmenterParams{Store: st, AI: &fakeAI{}})

	merged, err := a.MergeSynonymEntities(context.Background(), "demo")
	if err != nil {
		t.Fatalf("MergeSynonymEntities() error = %v", err)
	}
	if merged != 0 {
		t.Errorf("merged = %d, want 0", merged)
	}
}

func TestInferWeakLinks(t *testing.T) {
	manyEntities := make([]string, maxChunkEntities+1)
	for i := range manyEntities {
		manyEntities[i] = "entity_" + strings.Repeat("x", i+1)
	}

	st := &fakeStore{
		degrees: map[string]int{"lonely_node": 1, "hub": 9},
		chunks: []common.Chunk{
			{ID: "demo_chunk_00000", Text: "Text mentioning the lonely node."},
			{ID: "demo_chunk_00001", Text: "Crowded chunk."},
			{ID: "demo_chunk_00002", Text: "No weak entities here."},
		},
		mentions: map[string][]string{
			"demo_chunk_00000": {"lonely_node", "hub"},
			"demo_chunk_00001": manyEntities,
			"demo_chunk_00002": {"hub"},
		},
	}
	client := &fakeAI{
		completion: `[{"head": "lonely_node", "relation": "part_of", "tail": "hub"}]`,
	}
	a := NewAugmenter(NewAugmenterParams{Store: st, AI: client})

	merged, err := a.InferWeakLinks(context.Background(), "demo")
	if err != nil {
		t.Fatalf("InferWeakLinks() error = %v", err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}
	if len(st.mergedTriples["demo_chunk_00000"]) != 1 {
		t.Error("triple not merged for the weak entity's chunk")
	}
	if st.mergedConfidence != inferConfidence {
		t.Errorf("confidence = %v, want %v", st.mergedConfidence, inferConfidence)
	}
	// Only the chunk with a weak entity under the entity cap gets a call.
	if len(client.prompts) != 1 {
		t.Errorf("inference calls = %d, want 1", len(client.prompts))
	}
}

func TestEnhanceConnectivityFiltersUnknownEntities(t *testing.T) {
	st := &fakeStore{
		chunks: []common.Chunk{
			{ID: "demo_chunk_00000", Text: "Goats need vitamin A."},
		},
		mentions: map[string][]string{
			"demo_chunk_00000": {"goat", "vitamin_A"},
		},
	}
	client := &fakeAI{
		completion: `[
			{"head": "goat", "relation": "requires", "tail": "vitamin_A"},
			{"head": "goat", "relation": "lives_in", "tail": "barn"}
		]`,
	}
	a := NewAugmenter(NewAugmenterParams{Store: st, AI: client})

	merged, err := a.EnhanceConnectivity(context.Background(), "demo")
	if err != nil {
		t.Fatalf("EnhanceConnectivity() error = %v", err)
	}
	if merged != 1 {
		t.Errorf("merged = %d, want 1", merged)
	}
	got := st.mergedTriples["demo_chunk_00000"]
	if len(got) != 1 || got[0].Tail != "vitamin_A" {
		t.Errorf("merged triples = %v", got)
	}
}

func TestFixQualityIssues(t *testing.T) {
	st := &fakeStore{
		relations: []common.Relation{
			{ID: 1, Head: "goat", Type: "is_a", Tail: "ruminant"},
			{ID: 2, Head: "goat", Type: "is_a", Tail: "Goat"},
			{ID: 3, Head: "feed", Type: "42", Tail: "protein"},
		},
		entities: []common.Entity{
			entity(1, "goat"),
			entity(2, strings.Repeat("x", 60)),
		},
	}
	a := NewAugmenter(NewAugmenterParams{Store: st, AI: &fakeAI{}})

	relations, entities, err := a.FixQualityIssues(context.Background(), "demo")
	if err != nil {
		t.Fatalf("FixQualityIssues() error = %v", err)
	}
	if relations != 2 || entities != 1 {
		t.Errorf("removed = %d relations, %d entities, want 2/1", relations, entities)
	}
	if len(st.deletedRelations) != 2 || st.deletedRelations[0] != 2 || st.deletedRelations[1] != 3 {
		t.Errorf("deleted relations = %v", st.deletedRelations)
	}
	if len(st.deletedEntities) != 1 || st.deletedEntities[0] != 2 {
		t.Errorf("deleted entities = %v", st.deletedEntities)
	}
}
