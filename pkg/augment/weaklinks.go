package augment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/graph"
	"github.com/hopgraph/hopgraph/pkg/logger"
)

// InferWeakLinks finds entities with fewer than two relations and asks the
// model to connect them to other concepts in the chunks that mention them.
// Proposed triples go through the same validation as direct extraction and
// are merged with a reduced confidence. Returns the number of triples merged.
func (a *Augmenter) InferWeakLinks(ctx context.Context, dataset string) (int, error) {
	degrees, err := a.store.EntityDegrees(ctx, dataset)
	if err != nil {
		return 0, err
	}

	weak := make(map[string]struct{})
	for name, degree := range degrees {
		if degree < weakDegreeThreshold {
			weak[name] = struct{}{}
		}
	}
	if len(weak) == 0 {
		return 0, nil
	}

	chunks, err := a.store.GetChunks(ctx, dataset)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	chunkEntities, err := a.store.ChunkEntities(ctx, ids)
	if err != nil {
		return 0, err
	}

	logger.Info("[Augment] Inferring weak links", "dataset", dataset, "weak_entities", len(weak))

	merged := 0
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for _, c := range chunks {
		entities := chunkEntities[c.ID]
		if len(entities) == 0 || len(entities) > maxChunkEntities {
			continue
		}
		var targets []string
		for _, name := range entities {
			if _, ok := weak[name]; ok {
				targets = append(targets, name)
			}
		}
		if len(targets) == 0 {
			continue
		}

		chunk := c
		eg.Go(func() error {
			prompt := fmt.Sprintf(ai.WeakLinkPrompt, chunk.Text, strings.Join(targets, ", "))
			n, err := a.inferAndMerge(gCtx, chunk.ID, prompt, nil)
			if err != nil {
				return err
			}
			mu.Lock()
			merged += n
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return merged, err
	}

	logger.Info("[Augment] Weak links inferred", "dataset", dataset, "merged", merged)
	return merged, nil
}

// EnhanceConnectivity asks the model for implicit relationships between the
// entities already mentioned in each chunk. Triples touching entities outside
// the chunk's own mention set are discarded. Returns the number of triples
// merged.
func (a *Augmenter) EnhanceConnectivity(ctx context.Context, dataset string) (int, error) {
	chunks, err := a.store.GetChunks(ctx, dataset)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	chunkEntities, err := a.store.ChunkEntities(ctx, ids)
	if err != nil {
		return 0, err
	}

	merged := 0
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for _, c := range chunks {
		entities := chunkEntities[c.ID]
		if len(entities) < 2 || len(entities) > maxChunkEntities {
			continue
		}

		allowed := make(map[string]struct{}, len(entities))
		for _, name := range entities {
			allowed[name] = struct{}{}
		}

		chunk := c
		names := entities
		eg.Go(func() error {
			prompt := fmt.Sprintf(ai.RelationEnhancementPrompt, strings.Join(names, ", "), chunk.Text)
			n, err := a.inferAndMerge(gCtx, chunk.ID, prompt, allowed)
			if err != nil {
				return err
			}
			mu.Lock()
			merged += n
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return merged, err
	}

	logger.Info("[Augment] Connectivity enhanced", "dataset", dataset, "merged", merged)
	return merged, nil
}

// inferAndMerge runs one inference prompt and merges the surviving triples
// for the chunk. A nil allowed set accepts any validated triple; otherwise
// both endpoints must be in the set. Model failures degrade to zero triples.
func (a *Augmenter) inferAndMerge(
	ctx context.Context,
	chunkID string,
	prompt string,
	allowed map[string]struct{},
) (int, error) {
	raw, err := a.ai.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.2))
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		logger.Warn("[Augment] Inference failed", "chunk", chunkID, "error", err)
		return 0, nil
	}

	triples, err := graph.ParseTriples(raw)
	if err != nil {
		logger.Warn("[Augment] Unparseable inference output", "chunk", chunkID, "error", err)
		return 0, nil
	}

	if allowed != nil {
		kept := triples[:0]
		for _, t := range triples {
			if _, ok := allowed[t.Head]; !ok {
				continue
			}
			if _, ok := allowed[t.Tail]; !ok {
				continue
			}
			kept = append(kept, t)
		}
		triples = kept
	}
	if len(triples) == 0 {
		return 0, nil
	}

	if _, err := a.store.MergeTriples(ctx, chunkID, triples, inferConfidence); err != nil {
		return 0, err
	}
	return len(triples), nil
}
