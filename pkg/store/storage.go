package store

import (
	"context"

	"github.com/hopgraph/hopgraph/pkg/common"
)

// MergeStats summarizes what a single merge pass changed in the graph.
type MergeStats struct {
	EntitiesCreated  int `json:"entities_created"`
	RelationsCreated int `json:"relations_created"`
	RelationsUpdated int `json:"relations_updated"`
	MentionsCreated  int `json:"mentions_created"`
}

// Add accumulates the counters of another MergeStats.
func (s *MergeStats) Add(o MergeStats) {
	s.EntitiesCreated += o.EntitiesCreated
	s.RelationsCreated += o.RelationsCreated
	s.RelationsUpdated += o.RelationsUpdated
	s.MentionsCreated += o.MentionsCreated
}

// NeighborChunk is a chunk reached through the mention graph, annotated with
// the seed entity it was reached from and the number of relation hops taken.
type NeighborChunk struct {
	Chunk common.Chunk
	Seed  string
	Hops  int
}

// GraphStats holds the raw size counters of a dataset's graph.
type GraphStats struct {
	Chunks    int
	Entities  int
	Relations int
	Mentions  int
}

// GraphStorage is the persistence interface for the knowledge graph. It covers
// chunk ingestion, triple merging, similarity search, mention-graph traversal,
// and the maintenance operations used by augmentation and inspection.
type GraphStorage interface {
	// Migrate applies any pending schema migrations.
	Migrate(ctx context.Context) error

	// ChunkHashes returns the content hash of every stored chunk of the
	// dataset, keyed by chunk ID.
	ChunkHashes(ctx context.Context, dataset string) (map[string]string, error)

	// SaveChunk upserts a chunk together with its embedding.
	SaveChunk(ctx context.Context, chunk common.Chunk, embedding []float32) error

	// MergeTriples merges extracted triples into the graph for the given
	// chunk: entities are created if absent, relations are keyed by
	// (head, type, tail) with the chunk ID appended to their provenance
	// list, and mention edges link the chunk to both endpoints. Repeating
	// the call with the same input leaves the graph unchanged.
	MergeTriples(ctx context.Context, chunkID string, triples []common.Triple, confidence float64) (*MergeStats, error)

	// SearchChunks returns the topK chunks of the dataset most similar to
	// the query embedding, scored by cosine similarity.
	SearchChunks(ctx context.Context, dataset string, embedding []float32, topK int) ([]common.ScoredChunk, error)

	// ChunkEntities returns the entity names mentioned in each of the given
	// chunks, keyed by chunk ID.
	ChunkEntities(ctx context.Context, chunkIDs []string) (map[string][]string, error)

	// NeighborChunks returns chunks that mention entities reachable within
	// maxHops relation hops from the seed entities, each annotated with the
	// smallest hop count that reaches it. At most limit chunks are returned.
	NeighborChunks(ctx context.Context, dataset string, seeds []string, maxHops int, limit int) ([]NeighborChunk, error)

	// GetChunks returns all chunks of the dataset in ordinal order.
	GetChunks(ctx context.Context, dataset string) ([]common.Chunk, error)

	// ListEntities returns all entities mentioned by the dataset's chunks.
	ListEntities(ctx context.Context, dataset string) ([]common.Entity, error)

	// ListRelations returns all relations whose endpoints are mentioned by
	// the dataset's chunks, with endpoint names resolved.
	ListRelations(ctx context.Context, dataset string) ([]common.Relation, error)

	// EntityDegrees returns the relation degree of every entity of the
	// dataset, keyed by entity name. Isolated entities appear with degree 0.
	EntityDegrees(ctx context.Context, dataset string) (map[string]int, error)

	// MergeEntityNames rewires all relations and mentions of the duplicate
	// entities onto the canonical entity and deletes the duplicates.
	MergeEntityNames(ctx context.Context, canonical string, duplicates []string) error

	// DeleteIsolatedEntities removes entities of the dataset that have no
	// relations, returning how many were removed.
	DeleteIsolatedEntities(ctx context.Context, dataset string) (int, error)

	// BackfillRelationProvenance fills the chunk list of relations that
	// have none from chunks of the dataset mentioning both endpoints,
	// returning how many relations were updated.
	BackfillRelationProvenance(ctx context.Context, dataset string) (int, error)

	// DeleteRelations removes the relations with the given IDs.
	DeleteRelations(ctx context.Context, ids []int64) error

	// DeleteEntities removes the entities with the given IDs together with
	// their relations and mentions.
	DeleteEntities(ctx context.Context, ids []int64) error

	// Stats returns the size counters of the dataset's graph.
	Stats(ctx context.Context, dataset string) (*GraphStats, error)

	// CleanDataset removes all graph data of the dataset: mentions first,
	// then relations and entities left without a mention, then the chunks.
	CleanDataset(ctx context.Context, dataset string) error

	// CleanAll removes all graph data across every dataset.
	CleanAll(ctx context.Context) error
}
