package query

import (
	"context"
	"fmt"
	"time"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// RetrievalEngine combines multi-hop retrieval with answer generation.
type RetrievalEngine struct {
	retriever *MultiHopRetriever
	ai        ai.GraphAIClient

	language string
	model    string
}

// NewRetrievalEngineParams contains configuration options for creating a new
// RetrievalEngine. Language defaults to english; Model overrides the client's
// default chat model when set.
type NewRetrievalEngineParams struct {
	Store store.GraphStorage
	AI    ai.GraphAIClient

	Language string
	Model    string
}

// NewRetrievalEngine creates a new RetrievalEngine with the given parameters.
func NewRetrievalEngine(params NewRetrievalEngineParams) *RetrievalEngine {
	language := params.Language
	if language == "" {
		language = "english"
	}
	return &RetrievalEngine{
		retriever: NewMultiHopRetriever(params.Store, params.AI),
		ai:        params.AI,
		language:  language,
		model:     params.Model,
	}
}

// Retriever exposes the underlying retriever for callers that only need
// ranked chunks.
func (e *RetrievalEngine) Retriever() *MultiHopRetriever {
	return e.retriever
}

// QAResult is the outcome of a single answered question.
type QAResult struct {
	Question  string               `json:"question"`
	Answer    string               `json:"answer"`
	Chunks    []common.ScoredChunk `json:"chunks"`
	Depth     int                  `json:"depth"`
	TopK      int                  `json:"top_k"`
	LatencyMs int64                `json:"latency_ms"`
}

// Answer retrieves context for the question at the given hop depth and asks
// the chat model for an answer grounded in it. When retrieval finds nothing,
// the model is still asked, with a fallback context that tells it to decline.
func (e *RetrievalEngine) Answer(
	ctx context.Context,
	dataset string,
	question string,
	depth int,
	topK int,
) (*QAResult, error) {
	start := time.Now()

	chunks, err := e.retriever.Retrieve(ctx, dataset, question, depth, topK)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(ai.AnswerPrompt, AssembleContext(chunks), question, e.language)

	opts := []ai.GenerateOption{ai.WithTopP(0.9)}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}

	answer, err := e.ai.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	result := &QAResult{
		Question:  question,
		Answer:    answer,
		Chunks:    chunks,
		Depth:     depth,
		TopK:      topK,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	logger.Debug("[Query] Answered",
		"dataset", dataset,
		"depth", depth,
		"chunks", len(chunks),
		"latency_ms", result.LatencyMs,
	)

	return result, nil
}
