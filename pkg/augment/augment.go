package augment

import (
	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/store"
)

const (
	// Entity names handed to the synonym model per call.
	SynonymBatchSize = 200

	// Entities with fewer relations than this are considered weakly linked.
	weakDegreeThreshold = 2

	// Chunks mentioning more entities than this are skipped during
	// inference; the prompt gets too diluted to produce usable triples.
	maxChunkEntities = 20

	// Confidence assigned to relations created by augmentation passes,
	// below the confidence of directly extracted relations.
	inferConfidence = 0.8

	defaultWorkers = 2
)

// Augmenter runs heuristic quality passes over an existing graph: synonym
// merging, weak-link inference, connectivity enhancement, pruning, and
// cleanup of malformed graph elements.
type Augmenter struct {
	store store.GraphStorage
	ai    ai.GraphAIClient

	language string
	workers  int
}

// NewAugmenterParams contains configuration options for creating a new
// Augmenter. Workers bounds the parallel AI calls of the batch passes.
type NewAugmenterParams struct {
	Store store.GraphStorage
	AI    ai.GraphAIClient

	Language string
	Workers  int
}

// NewAugmenter creates a new Augmenter with the given parameters.
func NewAugmenter(params NewAugmenterParams) *Augmenter {
	language := params.Language
	if language == "" {
		language = "english"
	}
	workers := params.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Augmenter{
		store:    params.Store,
		ai:       params.AI,
		language: language,
		workers:  workers,
	}
}
