package augment

import (
	"context"
	"strings"
	"unicode"

	"github.com/hopgraph/hopgraph/pkg/logger"
)

// PruneIsolated removes entities of the dataset that have no relations at
// all. Returns the number of entities removed.
func (a *Augmenter) PruneIsolated(ctx context.Context, dataset string) (int, error) {
	removed, err := a.store.DeleteIsolatedEntities(ctx, dataset)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("[Augment] Isolated entities pruned", "dataset", dataset, "removed", removed)
	}
	return removed, nil
}

// FixQualityIssues removes malformed graph elements that slipped past
// extraction validation or were produced by merges: self-loop relations,
// relations with empty or numeric types, and entities whose names are empty
// or implausibly long. Returns the numbers of relations and entities removed.
func (a *Augmenter) FixQualityIssues(ctx context.Context, dataset string) (int, int, error) {
	relations, err := a.store.ListRelations(ctx, dataset)
	if err != nil {
		return 0, 0, err
	}

	var badRelations []int64
	for _, r := range relations {
		if strings.EqualFold(r.Head, r.Tail) || r.Type == "" || numericOnly(r.Type) {
			badRelations = append(badRelations, r.ID)
		}
	}
	if err := a.store.DeleteRelations(ctx, badRelations); err != nil {
		return 0, 0, err
	}

	entities, err := a.store.ListEntities(ctx, dataset)
	if err != nil {
		return len(badRelations), 0, err
	}

	var badEntities []int64
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" || len([]rune(name)) > 50 {
			badEntities = append(badEntities, e.ID)
		}
	}
	if err := a.store.DeleteEntities(ctx, badEntities); err != nil {
		return len(badRelations), 0, err
	}

	backfilled, err := a.store.BackfillRelationProvenance(ctx, dataset)
	if err != nil {
		return len(badRelations), len(badEntities), err
	}

	if len(badRelations) > 0 || len(badEntities) > 0 || backfilled > 0 {
		logger.Info("[Augment] Quality issues fixed",
			"dataset", dataset,
			"relations_removed", len(badRelations),
			"entities_removed", len(badEntities),
			"provenance_backfilled", backfilled,
		)
	}
	return len(badRelations), len(badEntities), nil
}

func numericOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
