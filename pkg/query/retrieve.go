package query

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

const (
	defaultTopK = 5

	// Entity expansion is seeded from at most this many entities across the
	// vector-matched chunks, highest-scoring chunks first.
	maxSeedEntities = 10

	hopDecay     = 0.7
	deepHopDecay = 0.5
)

// ErrUnsupportedDepth is returned for hop depths outside 0..3.
var ErrUnsupportedDepth = errors.New("unsupported hop depth")

// MultiHopRetriever answers retrieval requests by combining vector similarity
// search with bounded traversal of the mention graph. Depth 0 is a plain
// vector lookup; higher depths expand outward through entity relations and
// decay the scores of chunks found at a distance.
//
// Retrievers are stateless; concurrent Retrieve calls do not interact.
type MultiHopRetriever struct {
	store store.GraphStorage
	ai    ai.GraphAIClient
}

// NewMultiHopRetriever creates a retriever over the given store and AI client.
func NewMultiHopRetriever(storeClient store.GraphStorage, aiClient ai.GraphAIClient) *MultiHopRetriever {
	return &MultiHopRetriever{
		store: storeClient,
		ai:    aiClient,
	}
}

// Retrieve returns the chunks most relevant to the question at the given hop
// depth.
//
// Depth 0 returns the topK vector matches. Depth 1 additionally annotates
// each match with the entity names it mentions. Depth 2 expands one relation
// hop outward from the mentioned entities and includes chunks mentioning the
// neighbor entities, scored at the seed chunk's score times a decay factor;
// depth 3 expands up to two hops with a steeper decay. Chunks reachable by
// several paths keep their highest score. An empty graph yields an empty
// result.
func (r *MultiHopRetriever) Retrieve(
	ctx context.Context,
	dataset string,
	question string,
	depth int,
	topK int,
) ([]common.ScoredChunk, error) {
	if depth < 0 || depth > 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth)
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	embedding, err := r.ai.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	seeds, err := r.store.SearchChunks(ctx, dataset, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	if len(seeds) == 0 || depth == 0 {
		return seeds, nil
	}

	ids := make([]string, 0, len(seeds))
	for _, s := range seeds {
		ids = append(ids, s.Chunk.ID)
	}
	entityMap, err := r.store.ChunkEntities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk entities: %w", err)
	}
	for i := range seeds {
		seeds[i].Entities = entityMap[seeds[i].Chunk.ID]
	}
	if depth == 1 {
		return seeds, nil
	}

	decay := hopDecay
	maxHops := 1
	bound := topK * 2
	if depth == 3 {
		decay = deepHopDecay
		maxHops = 2
		bound = topK * 3
	}

	// Seeds are sorted by score, so the map holds the best seed chunk score
	// reaching each entity.
	entityScore := make(map[string]float64, maxSeedEntities)
	seedEntities := make([]string, 0, maxSeedEntities)
	for _, s := range seeds {
		for _, name := range s.Entities {
			if _, ok := entityScore[name]; ok {
				continue
			}
			if len(seedEntities) >= maxSeedEntities {
				continue
			}
			entityScore[name] = s.Score
			seedEntities = append(seedEntities, name)
		}
	}
	if len(seedEntities) == 0 {
		return truncate(seeds, bound), nil
	}

	neighbors, err := r.store.NeighborChunks(ctx, dataset, seedEntities, maxHops, bound*2)
	if err != nil {
		return nil, fmt.Errorf("failed to expand neighbor chunks: %w", err)
	}

	logger.Debug("[Retrieve] Expanded",
		"dataset", dataset,
		"depth", depth,
		"seed_entities", len(seedEntities),
		"neighbors", len(neighbors),
	)

	best := make(map[string]common.ScoredChunk, len(seeds)+len(neighbors))
	for _, s := range seeds {
		best[s.Chunk.ID] = s
	}
	for _, n := range neighbors {
		score := entityScore[n.Seed] * decay
		if cur, ok := best[n.Chunk.ID]; ok && cur.Score >= score {
			continue
		}
		best[n.Chunk.ID] = common.ScoredChunk{Chunk: n.Chunk, Score: score}
	}

	results := make([]common.ScoredChunk, 0, len(best))
	for _, sc := range best {
		results = append(results, sc)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})
	return truncate(results, bound), nil
}

func truncate(chunks []common.ScoredChunk, limit int) []common.ScoredChunk {
	if len(chunks) > limit {
		return chunks[:limit]
	}
	return chunks
}
