package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/logger"

	"github.com/openai/openai-go/v3"
)

const defaultDimensions = 768

// Inputs beyond this many runes are truncated before embedding; the embedding
// models in use degrade to errors well before it.
const maxEmbedChars = 8000

func isContextLengthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context length") ||
		strings.Contains(msg, "maximum context") ||
		strings.Contains(msg, "too large")
}

// GenerateEmbedding creates a vector embedding for the given input text using
// the configured embedding model.
//
// Oversized inputs are truncated to maxEmbedChars. If the model still rejects
// the input for length, the input is halved and retried exactly once before
// the error is returned. Empty input yields a zero vector.
func (c *GraphOpenAIClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, errors.New("embedding client is not configured")
	}

	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", defaultDimensions))
	text := strings.TrimSpace(string(input))
	if text == "" {
		return make([]float32, dim), nil
	}

	text = util.TruncateRunes(text, maxEmbedChars)

	res, err := c.embed(ctx, text)
	if err != nil && isContextLengthError(err) {
		logger.Warn("[Embed] Input rejected for length, halving and retrying", "len", len(text))
		res, err = c.embed(ctx, util.TruncateRunes(text, len([]rune(text))/2))
	}
	if err != nil {
		return nil, err
	}

	if len(res.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(res.Usage.PromptTokens),
		TotalTokens: int(res.Usage.TotalTokens),
	})

	embedding := res.Data[0].Embedding
	out := make([]float32, 0, dim)
	for _, v := range embedding {
		if len(out) >= dim {
			break
		}
		out = append(out, float32(v))
	}
	for len(out) < dim {
		out = append(out, 0)
	}
	return out, nil
}

func (c *GraphOpenAIClient) embed(ctx context.Context, text string) (*openai.CreateEmbeddingResponse, error) {
	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	if err := c.embeddingLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.embeddingLock.Release(1)

	return c.EmbeddingClient.Embeddings.New(rCtx, openai.EmbeddingNewParams{
		Model: c.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
}
