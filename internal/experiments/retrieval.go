package experiments

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/metrics"
	"github.com/hopgraph/hopgraph/pkg/query"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// Default ablation grid: every supported hop depth crossed with three
// retrieval widths.
var (
	DefaultHopDepths = []int{0, 1, 2, 3}
	DefaultTopKs     = []int{5, 10, 15}
)

// AnswerRecord is one answered question inside an ablation cell, kept for the
// per-question export.
type AnswerRecord struct {
	RunID      string  `json:"run_id"`
	Dataset    string  `json:"dataset"`
	HopDepth   int     `json:"hop_depth"`
	TopK       int     `json:"top_k"`
	QuestionID string  `json:"question_id"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Reference  string  `json:"reference,omitempty"`
	F1         float64 `json:"f1"`
	ExactMatch bool    `json:"exact_match"`
	Similarity float64 `json:"similarity"`
	Effective  bool    `json:"effective"`
	Chunks     int     `json:"chunks"`
	LatencyMs  int64   `json:"latency_ms"`
}

// CellResult aggregates one (hop depth, top-k) cell over the full question
// set.
type CellResult struct {
	RunID    string `json:"run_id"`
	Dataset  string `json:"dataset"`
	HopDepth int    `json:"hop_depth"`
	TopK     int    `json:"top_k"`

	Questions     int     `json:"questions"`
	AvgF1         float64 `json:"avg_f1"`
	AvgSimilarity float64 `json:"avg_similarity"`
	ExactMatches  int     `json:"exact_matches"`
	EffectiveRate float64 `json:"effective_rate"`
	AvgChunks     float64 `json:"avg_chunks"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	TotalTokens   int     `json:"total_tokens"`
}

// RetrievalAblation runs the hop-depth and top-k grid over a question set.
type RetrievalAblation struct {
	engine *query.RetrievalEngine
	ai     ai.GraphAIClient
}

// NewRetrievalAblationParams contains configuration options for creating a
// new RetrievalAblation.
type NewRetrievalAblationParams struct {
	Store store.GraphStorage
	AI    ai.GraphAIClient

	Language string
	Model    string
}

// NewRetrievalAblation creates a new RetrievalAblation with the given
// parameters.
func NewRetrievalAblation(params NewRetrievalAblationParams) *RetrievalAblation {
	return &RetrievalAblation{
		engine: query.NewRetrievalEngine(query.NewRetrievalEngineParams{
			Store:    params.Store,
			AI:       params.AI,
			Language: params.Language,
			Model:    params.Model,
		}),
		ai: params.AI,
	}
}

// Run answers every question at every grid cell and aggregates the scores.
// Empty grids fall back to the defaults. A failing question aborts the run so
// partial grids never masquerade as complete results.
func (r *RetrievalAblation) Run(
	ctx context.Context,
	dataset string,
	questions []Question,
	hopDepths []int,
	topKs []int,
) ([]CellResult, []AnswerRecord, error) {
	if len(questions) == 0 {
		return nil, nil, fmt.Errorf("no questions to evaluate")
	}
	if len(hopDepths) == 0 {
		hopDepths = DefaultHopDepths
	}
	if len(topKs) == 0 {
		topKs = DefaultTopKs
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, nil, err
	}

	logger.Info("[Ablation] Starting retrieval grid",
		"run_id", runID,
		"dataset", dataset,
		"questions", len(questions),
		"cells", len(hopDepths)*len(topKs),
	)

	var cells []CellResult
	var records []AnswerRecord

	for _, depth := range hopDepths {
		for _, topK := range topKs {
			r.ai.ResetMetrics()

			cell := CellResult{
				RunID:     runID,
				Dataset:   dataset,
				HopDepth:  depth,
				TopK:      topK,
				Questions: len(questions),
			}

			for _, q := range questions {
				record, err := r.answerOne(ctx, runID, dataset, q, depth, topK)
				if err != nil {
					return nil, nil, fmt.Errorf(
						"failed cell depth=%d top_k=%d question=%s: %w",
						depth, topK, q.ID, err,
					)
				}

				cell.AvgF1 += record.F1
				cell.AvgSimilarity += record.Similarity
				cell.AvgChunks += float64(record.Chunks)
				cell.AvgLatencyMs += float64(record.LatencyMs)
				if record.ExactMatch {
					cell.ExactMatches++
				}
				if record.Effective {
					cell.EffectiveRate++
				}
				records = append(records, *record)
			}

			n := float64(len(questions))
			cell.AvgF1 /= n
			cell.AvgSimilarity /= n
			cell.AvgChunks /= n
			cell.AvgLatencyMs /= n
			cell.EffectiveRate /= n
			cell.TotalTokens = r.ai.GetMetrics().TotalTokens

			logger.Info("[Ablation] Cell finished",
				"hop_depth", depth,
				"top_k", topK,
				"avg_f1", cell.AvgF1,
				"effective_rate", cell.EffectiveRate,
			)
			cells = append(cells, cell)
		}
	}

	return cells, records, nil
}

func (r *RetrievalAblation) answerOne(
	ctx context.Context,
	runID string,
	dataset string,
	q Question,
	depth int,
	topK int,
) (*AnswerRecord, error) {
	result, err := r.engine.Answer(ctx, dataset, q.Text, depth, topK)
	if err != nil {
		return nil, err
	}

	record := &AnswerRecord{
		RunID:      runID,
		Dataset:    dataset,
		HopDepth:   depth,
		TopK:       topK,
		QuestionID: q.ID,
		Question:   q.Text,
		Answer:     result.Answer,
		Reference:  q.Reference,
		Effective:  metrics.IsEffectiveAnswer(result.Answer),
		Chunks:     len(result.Chunks),
		LatencyMs:  result.LatencyMs,
	}

	if q.Reference != "" {
		record.F1 = metrics.TokenF1(result.Answer, q.Reference)
		record.ExactMatch = metrics.ExactMatch(result.Answer, q.Reference)

		similarity, err := r.answerSimilarity(ctx, result.Answer, q.Reference)
		if err != nil {
			return nil, err
		}
		record.Similarity = similarity
	}

	return record, nil
}

// answerSimilarity embeds both answers and compares them. Embedding failures
// degrade to 0 rather than aborting the run, since the lexical scores still
// stand on their own.
func (r *RetrievalAblation) answerSimilarity(
	ctx context.Context,
	answer string,
	reference string,
) (float64, error) {
	predEmbed, err := r.ai.GenerateEmbedding(ctx, []byte(answer))
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		logger.Warn("[Ablation] Failed to embed answer", "error", err)
		return 0, nil
	}
	refEmbed, err := r.ai.GenerateEmbedding(ctx, []byte(reference))
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		logger.Warn("[Ablation] Failed to embed reference", "error", err)
		return 0, nil
	}
	return metrics.Cosine(predEmbed, refEmbed), nil
}
