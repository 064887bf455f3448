package experiments

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/graph"
	"github.com/hopgraph/hopgraph/pkg/inspect"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// IndexingConfig is one segmentation setting under test.
type IndexingConfig struct {
	Window  int `json:"window"`
	Overlap int `json:"overlap"`
}

// DefaultIndexingGrid spans window sizes from 1k to 8k runes, each with two
// overlap settings.
var DefaultIndexingGrid = []IndexingConfig{
	{Window: 1024, Overlap: 128},
	{Window: 1024, Overlap: 256},
	{Window: 2048, Overlap: 256},
	{Window: 2048, Overlap: 512},
	{Window: 4096, Overlap: 512},
	{Window: 4096, Overlap: 1024},
	{Window: 8192, Overlap: 1024},
	{Window: 8192, Overlap: 2048},
}

// IndexingResult captures the graph produced by one segmentation setting.
type IndexingResult struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Window  int    `json:"window"`
	Overlap int    `json:"overlap"`

	Chunks        int     `json:"chunks"`
	ChunksFailed  int     `json:"chunks_failed"`
	Entities      int     `json:"entities"`
	Relations     int     `json:"relations"`
	Density       float64 `json:"density"`
	AvgDegree     float64 `json:"avg_degree"`
	Grade         string  `json:"grade"`
	BuildDuration int64   `json:"build_duration_ms"`
	TotalTokens   int     `json:"total_tokens"`
}

// IndexingAblation builds the same corpus once per segmentation setting and
// inspects each resulting graph.
type IndexingAblation struct {
	store store.GraphStorage
	ai    ai.GraphAIClient

	language        string
	extractionModel string
}

// NewIndexingAblationParams contains configuration options for creating a new
// IndexingAblation.
type NewIndexingAblationParams struct {
	Store store.GraphStorage
	AI    ai.GraphAIClient

	Language        string
	ExtractionModel string
}

// NewIndexingAblation creates a new IndexingAblation with the given
// parameters.
func NewIndexingAblation(params NewIndexingAblationParams) *IndexingAblation {
	return &IndexingAblation{
		store:           params.Store,
		ai:              params.AI,
		language:        params.Language,
		extractionModel: params.ExtractionModel,
	}
}

// Run builds dataset variants named <dataset>_w<window>_o<overlap>, one per
// grid entry, and reports the quality of each graph. Variants are cleaned
// before building so reruns start from scratch.
func (a *IndexingAblation) Run(
	ctx context.Context,
	dataset string,
	source string,
	text string,
	grid []IndexingConfig,
) ([]IndexingResult, error) {
	if len(grid) == 0 {
		grid = DefaultIndexingGrid
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	logger.Info("[Ablation] Starting indexing grid",
		"run_id", runID,
		"dataset", dataset,
		"configs", len(grid),
	)

	inspector := inspect.NewInspector(a.store)
	results := make([]IndexingResult, 0, len(grid))

	for _, cfg := range grid {
		variant := fmt.Sprintf("%s_w%d_o%d", dataset, cfg.Window, cfg.Overlap)

		if err := a.store.CleanDataset(ctx, variant); err != nil {
			return nil, fmt.Errorf("failed to clean variant %s: %w", variant, err)
		}

		builder := graph.NewGraphBuilder(graph.NewGraphBuilderParams{
			Store:           a.store,
			AI:              a.ai,
			Language:        a.language,
			ExtractionModel: a.extractionModel,
			SegmentWindow:   cfg.Window,
			SegmentOverlap:  cfg.Overlap,
		})

		a.ai.ResetMetrics()
		start := time.Now()
		buildResult, err := builder.Build(ctx, variant, source, text)
		if err != nil {
			return nil, fmt.Errorf("failed to build variant %s: %w", variant, err)
		}

		report, err := inspector.Inspect(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect variant %s: %w", variant, err)
		}

		result := IndexingResult{
			RunID:         runID,
			Dataset:       variant,
			Window:        cfg.Window,
			Overlap:       cfg.Overlap,
			Chunks:        buildResult.ChunksTotal,
			ChunksFailed:  buildResult.ChunksFailed,
			Entities:      report.Entities,
			Relations:     report.Relations,
			Density:       report.EffectiveDensity,
			AvgDegree:     report.AvgDegree,
			Grade:         report.Grade,
			BuildDuration: time.Since(start).Milliseconds(),
			TotalTokens:   a.ai.GetMetrics().TotalTokens,
		}
		results = append(results, result)

		logger.Info("[Ablation] Variant finished",
			"dataset", variant,
			"chunks", result.Chunks,
			"entities", result.Entities,
			"relations", result.Relations,
			"grade", result.Grade,
		)
	}

	return results, nil
}
