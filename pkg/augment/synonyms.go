package augment

import (
	"context"
	"fmt"
	"strings"

	"github.com/hopgraph/hopgraph/pkg/ai"
	"github.com/hopgraph/hopgraph/pkg/logger"
)

// SynonymGroup is one set of entity names referring to the same concept.
type SynonymGroup struct {
	Primary  string   `json:"primary" jsonschema_description:"The most standard and complete name of the concept."`
	Synonyms []string `json:"synonyms" jsonschema_description:"Other entity names from the list that refer to the same concept."`
}

// SynonymResponse is the structured output of the synonym resolution call.
type SynonymResponse struct {
	Groups []SynonymGroup `json:"groups" jsonschema_description:"Groups of duplicate entity names to merge."`
}

// MergeSynonymEntities asks the model which entity names of the dataset refer
// to the same concept and folds each group into its primary name. Entity
// names are processed in batches. Returns the number of entities merged away.
func (a *Augmenter) MergeSynonymEntities(ctx context.Context, dataset string) (int, error) {
	entities, err := a.store.ListEntities(ctx, dataset)
	if err != nil {
		return 0, err
	}
	if len(entities) < 2 {
		return 0, nil
	}

	names := make([]string, 0, len(entities))
	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
		known[e.Name] = struct{}{}
	}

	merged := 0
	for start := 0; start < len(names); start += SynonymBatchSize {
		end := min(start+SynonymBatchSize, len(names))
		batch := names[start:end]

		prompt := fmt.Sprintf(ai.EntityResolutionPrompt, strings.Join(batch, ", "))

		var res SynonymResponse
		err := a.ai.GenerateCompletionWithFormat(
			ctx, "merge_synonyms", "Identify entity names that refer to the same concept.", prompt, &res,
		)
		if err != nil {
			logger.Warn("[Augment] Synonym resolution failed for batch", "start", start, "error", err)
			continue
		}

		for _, group := range res.Groups {
			duplicates := make([]string, 0, len(group.Synonyms))
			for _, syn := range group.Synonyms {
				// The model occasionally invents names; only merge what
				// actually exists, and never the primary into itself.
				if _, ok := known[syn]; !ok || syn == group.Primary {
					continue
				}
				duplicates = append(duplicates, syn)
			}
			if group.Primary == "" || len(duplicates) == 0 {
				continue
			}
			if err := a.store.MergeEntityNames(ctx, group.Primary, duplicates); err != nil {
				return merged, fmt.Errorf("failed to merge %q: %w", group.Primary, err)
			}
			merged += len(duplicates)
		}
	}

	if merged > 0 {
		logger.Info("[Augment] Synonym entities merged", "dataset", dataset, "merged", merged)
	}
	return merged, nil
}
