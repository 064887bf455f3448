package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/logger"

	"github.com/ollama/ollama/api"
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
		strings.Contains(msg, "input length") ||
		strings.Contains(msg, "too large")
}

// GenerateEmbedding creates a vector embedding for the given input text using
// the configured embedding model on Ollama.
//
// Oversized inputs are truncated to maxEmbedChars. If the model still rejects
// the input for length, the input is halved and retried exactly once before
// the error is returned. Empty input yields a zero vector.
func (c *GraphOllamaClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
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

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	out := make([]float32, 0, dim)
	for _, v := range res.Embeddings {
		for _, val := range v {
			if len(out) >= dim {
				break
			}
			out = append(out, float32(val))
		}
	}
	for len(out) < dim {
		out = append(out, 0)
	}
	return out, nil
}

func (c *GraphOllamaClient) embed(ctx context.Context, text string) (*api.EmbedResponse, error) {
	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: text,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	return c.Client.Embed(rCtx, req)
}
