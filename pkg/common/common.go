package common

import "time"

// Chunk represents a contiguous window of corpus text. Chunks are the
// smallest retrievable units in the graph and serve as the provenance
// for entities and relations.
//
// Chunk IDs are deterministic: the dataset identifier plus the zero-padded
// ordinal of the window within the corpus. Rebuilding the same corpus with
// the same window parameters yields the same IDs, which is what makes
// incremental construction idempotent.
type Chunk struct {
	ID      string `json:"id"`
	Dataset string `json:"dataset"`
	Ordinal int    `json:"ordinal"`
	Source  string `json:"source"`
	Text    string `json:"text"`
	Hash    string `json:"hash"`
}

// Triple is a single (head, relation, tail) statement extracted from text.
type Triple struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
}

// Entity is a node in the knowledge graph, identified by its exact name.
type Entity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Relation is a directed, typed edge between two entities. Chunks lists
// the IDs of every chunk that stated this relation; the list never holds
// the same chunk twice.
type Relation struct {
	ID          int64     `json:"id"`
	Head        string    `json:"head"`
	Type        string    `json:"type"`
	Tail        string    `json:"tail"`
	Chunks      []string  `json:"chunks"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// ScoredChunk is a chunk paired with a retrieval score. Entities is only
// populated by retrieval depths that surface mentioned entity names.
type ScoredChunk struct {
	Chunk    Chunk    `json:"chunk"`
	Score    float64  `json:"score"`
	Entities []string `json:"entities,omitempty"`
}
