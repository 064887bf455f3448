package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
)

const (
	extractAttempts = 3
	splitMinChars   = 600
	splitSliceChars = 1024
	splitAttempts   = 2
)

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// TripleExtractor turns chunk text into validated triples using the
// extraction model. Extraction failures degrade to an empty result rather
// than failing the caller; only context cancellation escapes.
type TripleExtractor struct {
	client   ai.GraphAIClient
	language string
	model    string
}

// NewTripleExtractorParams contains configuration options for creating a new
// TripleExtractor. Model overrides the client's default extraction model when
// set; Language defaults to english.
type NewTripleExtractorParams struct {
	Client   ai.GraphAIClient
	Language string
	Model    string
}

// NewTripleExtractor creates a new TripleExtractor with the given parameters.
func NewTripleExtractor(params NewTripleExtractorParams) *TripleExtractor {
	language := params.Language
	if language == "" {
		language = "english"
	}
	return &TripleExtractor{
		client:   params.Client,
		language: language,
		model:    params.Model,
	}
}

// Extract runs triple extraction over the text. The full text gets up to
// extractAttempts attempts with slightly rising temperature. If all attempts
// come back empty and the text is long enough to carry more than one
// paragraph, each paragraph is retried individually with a smaller attempt
// budget and the results are merged.
func (e *TripleExtractor) Extract(ctx context.Context, text string) ([]common.Triple, error) {
	triples, err := e.extractWithRetries(ctx, text, extractAttempts)
	if err != nil {
		return nil, err
	}
	if len(triples) > 0 || len([]rune(text)) <= splitMinChars {
		return triples, nil
	}

	logger.Warn("[Extract] No triples from full chunk, retrying per paragraph", "chars", len(text))

	merged := make([]common.Triple, 0)
	seen := make(map[common.Triple]struct{})
	for _, part := range splitForExtraction(text) {
		partTriples, err := e.extractWithRetries(ctx, part, splitAttempts)
		if err != nil {
			return nil, err
		}
		for _, t := range partTriples {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged, nil
}

func (e *TripleExtractor) extractWithRetries(
	ctx context.Context,
	text string,
	attempts int,
) ([]common.Triple, error) {
	prompt := fmt.Sprintf(ai.TriplePrompt, e.language, text)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opts := []ai.GenerateOption{
			ai.WithTemperature(0.15 + 0.05*float64(attempt)),
			ai.WithTopP(0.9),
		}
		if e.model != "" {
			opts = append(opts, ai.WithModel(e.model))
		}

		raw, err := e.client.GenerateCompletion(ctx, prompt, opts...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn("[Extract] Completion failed", "attempt", attempt+1, "error", err)
			continue
		}

		triples, err := ParseTriples(raw)
		if err != nil {
			logger.Warn("[Extract] Unparseable triple output", "attempt", attempt+1, "error", err)
			continue
		}
		if len(triples) > 0 {
			return triples, nil
		}
	}
	return nil, nil
}

// splitForExtraction splits text on blank lines. Paragraphs longer than
// splitSliceChars are cut into fixed-size slices so every part stays within a
// comfortable prompt size.
func splitForExtraction(text string) []string {
	var parts []string
	for _, p := range blankLineRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		runes := []rune(p)
		for len(runes) > splitSliceChars {
			parts = append(parts, string(runes[:splitSliceChars]))
			runes = runes[splitSliceChars:]
		}
		if len(runes) > 0 {
			parts = append(parts, string(runes))
		}
	}
	return parts
}
