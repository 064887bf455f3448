package pgx

import (
	"context"

	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// MergeTriples merges extracted triples into the graph for a chunk, all in one
// transaction. Entities are matched by name, relations by (head, type, tail);
// a relation seen again from a new chunk only gains that chunk in its
// provenance list. Repeating the call with the same input changes nothing.
func (s *GraphDBStorage) MergeTriples(
	ctx context.Context,
	chunkID string,
	triples []common.Triple,
	confidence float64,
) (*store.MergeStats, error) {
	stats := &store.MergeStats{}
	if len(triples) == 0 {
		return stats, nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, t := range triples {
		headID, created, err := upsertEntity(ctx, tx, t.Head)
		if err != nil {
			return nil, err
		}
		if created {
			stats.EntitiesCreated++
		}

		tailID, created, err := upsertEntity(ctx, tx, t.Tail)
		if err != nil {
			return nil, err
		}
		if created {
			stats.EntitiesCreated++
		}

		var inserted bool
		err = tx.QueryRow(ctx, `
			INSERT INTO relations (head_id, rel_type, tail_id, chunks, confidence)
			VALUES ($1, $2, $3, ARRAY[$4::text], $5)
			ON CONFLICT (head_id, rel_type, tail_id) DO UPDATE SET
				chunks = CASE
					WHEN $4 = ANY (relations.chunks) THEN relations.chunks
					ELSE array_append(relations.chunks, $4::text)
				END,
				last_updated = now()
			RETURNING (xmax = 0) AS inserted`,
			headID, t.Relation, tailID, chunkID, confidence,
		).Scan(&inserted)
		if err != nil {
			return nil, err
		}
		if inserted {
			stats.RelationsCreated++
		} else {
			stats.RelationsUpdated++
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO mentions (chunk_id, entity_id)
			VALUES ($1, $2), ($1, $3)
			ON CONFLICT DO NOTHING`,
			chunkID, headID, tailID,
		)
		if err != nil {
			return nil, err
		}
		stats.MentionsCreated += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Debug("[Store] Triples merged",
		"chunk", chunkID,
		"triples", len(triples),
		"entities_created", stats.EntitiesCreated,
		"relations_created", stats.RelationsCreated,
	)

	return stats, nil
}

func upsertEntity(ctx context.Context, conn pgxIConn, name string) (int64, bool, error) {
	var (
		id      int64
		created bool
	)
	err := conn.QueryRow(ctx, `
		INSERT INTO entities (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, (xmax = 0) AS inserted`,
		name,
	).Scan(&id, &created)
	return id, created, err
}
