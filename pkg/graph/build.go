package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

const (
	defaultSegmentWindow  = 1024
	defaultSegmentOverlap = 128

	// Confidence assigned to relations created from direct extraction.
	mergeConfidence = 0.9
)

// GraphBuilder drives the ingestion pipeline: segmentation, embedding,
// triple extraction, and merging into the graph store.
//
// Chunks are processed strictly in order, one at a time. Entity upserts of a
// chunk must be visible before the next chunk's potentially overlapping
// entity names are merged.
type GraphBuilder struct {
	store     store.GraphStorage
	ai        ai.GraphAIClient
	extractor *TripleExtractor

	window  int
	overlap int
}

// NewGraphBuilderParams contains configuration options for creating a new
// GraphBuilder.
type NewGraphBuilderParams struct {
	Store store.GraphStorage
	AI    ai.GraphAIClient

	Language        string
	ExtractionModel string

	SegmentWindow  int
	SegmentOverlap int
}

// NewGraphBuilder creates a new GraphBuilder with the given parameters.
func NewGraphBuilder(params NewGraphBuilderParams) *GraphBuilder {
	window := params.SegmentWindow
	if window <= 0 {
		window = defaultSegmentWindow
	}
	overlap := params.SegmentOverlap
	if overlap <= 0 {
		overlap = defaultSegmentOverlap
	}

	return &GraphBuilder{
		store: params.Store,
		ai:    params.AI,
		extractor: NewTripleExtractor(NewTripleExtractorParams{
			Client:   params.AI,
			Language: params.Language,
			Model:    params.ExtractionModel,
		}),
		window:  window,
		overlap: overlap,
	}
}

// BuildResult summarizes a single ingestion run. EmptyChunks lists the IDs of
// chunks whose extraction produced no triples at all; they carry embeddings
// but contribute nothing to the graph.
type BuildResult struct {
	ChunksTotal   int              `json:"chunks_total"`
	ChunksSkipped int              `json:"chunks_skipped"`
	ChunksFailed  int              `json:"chunks_failed"`
	TriplesMerged int              `json:"triples_merged"`
	EmptyChunks   []string         `json:"empty_chunks,omitempty"`
	Stats         store.MergeStats `json:"stats"`
}

// Build ingests a document into the dataset's graph. Chunks whose stored hash
// is unchanged skip the embedding write; extraction and merging always run so
// repeated builds repair missing graph data. A failing chunk is logged and
// skipped without aborting the run, except on context cancellation.
func (b *GraphBuilder) Build(
	ctx context.Context,
	dataset string,
	source string,
	text string,
) (*BuildResult, error) {
	chunks, err := BuildChunks(dataset, source, text, b.window, b.overlap)
	if err != nil {
		return nil, err
	}

	hashes, err := b.store.ChunkHashes(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk hashes: %w", err)
	}

	result := &BuildResult{ChunksTotal: len(chunks)}

	logger.Info("[Graph] Building", "dataset", dataset, "source", source, "chunks", len(chunks))

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := b.processChunk(ctx, chunk, hashes, result); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.ChunksFailed++
			logger.Error("[Graph] Chunk failed", "chunk", chunk.ID, "error", err)
		}
	}

	logger.Info("[Graph] Build completed",
		"dataset", dataset,
		"chunks", result.ChunksTotal,
		"skipped", result.ChunksSkipped,
		"failed", result.ChunksFailed,
		"empty", len(result.EmptyChunks),
		"triples", result.TriplesMerged,
	)

	return result, nil
}

func (b *GraphBuilder) processChunk(
	ctx context.Context,
	chunk common.Chunk,
	hashes map[string]string,
	result *BuildResult,
) error {
	if hashes[chunk.ID] == chunk.Hash {
		result.ChunksSkipped++
	} else {
		embedding, err := b.ai.GenerateEmbedding(ctx, []byte(chunk.Text))
		if err != nil {
			return fmt.Errorf("failed to embed chunk: %w", err)
		}
		if err := b.store.SaveChunk(ctx, chunk, embedding); err != nil {
			return fmt.Errorf("failed to save chunk: %w", err)
		}
	}

	triples, err := b.extractor.Extract(ctx, chunk.Text)
	if err != nil {
		return err
	}
	if len(triples) == 0 {
		result.EmptyChunks = append(result.EmptyChunks, chunk.ID)
		return nil
	}

	stats, err := b.store.MergeTriples(ctx, chunk.ID, triples, mergeConfidence)
	if err != nil {
		return fmt.Errorf("failed to merge triples: %w", err)
	}

	result.TriplesMerged += len(triples)
	result.Stats.Add(*stats)
	return nil
}
