package pgx

import (
	"context"

	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
	"github.com/hopgraph/hopgraph/pkg/store"
)

// ListEntities returns all entities mentioned by the dataset's chunks.
func (s *GraphDBStorage) ListEntities(ctx context.Context, dataset string) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT e.id, e.name, e.created_at
		FROM entities e
		WHERE EXISTS (
			SELECT 1
			FROM mentions m
			JOIN chunks c ON c.id = m.chunk_id
			WHERE m.entity_id = e.id AND c.dataset = $1
		)
		ORDER BY e.name`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []common.Entity
	for rows.Next() {
		var e common.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// ListRelations returns all relations with provenance in the dataset's
// chunks, endpoint names resolved.
func (s *GraphDBStorage) ListRelations(ctx context.Context, dataset string) ([]common.Relation, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT r.id, he.name, r.rel_type, te.name, r.chunks, r.confidence,
			r.created_at, r.last_updated
		FROM relations r
		JOIN entities he ON he.id = r.head_id
		JOIN entities te ON te.id = r.tail_id
		WHERE EXISTS (
			SELECT 1 FROM chunks c
			WHERE c.dataset = $1 AND c.id = ANY (r.chunks)
		)
		ORDER BY r.id`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []common.Relation
	for rows.Next() {
		var r common.Relation
		if err := rows.Scan(
			&r.ID, &r.Head, &r.Type, &r.Tail, &r.Chunks,
			&r.Confidence, &r.CreatedAt, &r.LastUpdated,
		); err != nil {
			return nil, err
		}
		relations = append(relations, r)
	}
	return relations, rows.Err()
}

// EntityDegrees returns the relation degree of every entity of the dataset,
// keyed by name. Isolated entities appear with degree 0.
func (s *GraphDBStorage) EntityDegrees(ctx context.Context, dataset string) (map[string]int, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT e.name,
			(SELECT COUNT(*) FROM relations r WHERE r.head_id = e.id OR r.tail_id = e.id)
		FROM entities e
		WHERE EXISTS (
			SELECT 1
			FROM mentions m
			JOIN chunks c ON c.id = m.chunk_id
			WHERE m.entity_id = e.id AND c.dataset = $1
		)`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	degrees := make(map[string]int)
	for rows.Next() {
		var (
			name   string
			degree int
		)
		if err := rows.Scan(&name, &degree); err != nil {
			return nil, err
		}
		degrees[name] = degree
	}
	return degrees, rows.Err()
}

// MergeEntityNames folds the duplicate entities into the canonical one:
// relations and mentions are repointed, relations that would collide with an
// existing canonical edge merge their provenance into it, and the duplicates
// are deleted. Self-loops produced by merging two endpoints of one relation
// are dropped.
func (s *GraphDBStorage) MergeEntityNames(ctx context.Context, canonical string, duplicates []string) error {
	if len(duplicates) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	canonicalID, _, err := upsertEntity(ctx, tx, canonical)
	if err != nil {
		return err
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM entities WHERE name = ANY ($1) AND id <> $2`,
		duplicates, canonicalID,
	)
	if err != nil {
		return err
	}
	var dupIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		dupIDs = append(dupIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(dupIDs) == 0 {
		return tx.Commit(ctx)
	}

	statements := []string{
		// Fold duplicate-headed relations into an existing canonical twin.
		`UPDATE relations r
		SET chunks = ARRAY(SELECT DISTINCT x FROM unnest(r.chunks || d.chunks) AS x),
			last_updated = now()
		FROM relations d
		WHERE r.head_id = $1 AND d.head_id = ANY ($2)
			AND r.rel_type = d.rel_type AND r.tail_id = d.tail_id`,
		`DELETE FROM relations d
		WHERE d.head_id = ANY ($2) AND EXISTS (
			SELECT 1 FROM relations r
			WHERE r.head_id = $1 AND r.rel_type = d.rel_type AND r.tail_id = d.tail_id
		)`,
		`UPDATE relations SET head_id = $1, last_updated = now() WHERE head_id = ANY ($2)`,

		// Same fold for the tail side.
		`UPDATE relations r
		SET chunks = ARRAY(SELECT DISTINCT x FROM unnest(r.chunks || d.chunks) AS x),
			last_updated = now()
		FROM relations d
		WHERE r.tail_id = $1 AND d.tail_id = ANY ($2)
			AND r.rel_type = d.rel_type AND r.head_id = d.head_id`,
		`DELETE FROM relations d
		WHERE d.tail_id = ANY ($2) AND EXISTS (
			SELECT 1 FROM relations r
			WHERE r.tail_id = $1 AND r.rel_type = d.rel_type AND r.head_id = d.head_id
		)`,
		`UPDATE relations SET tail_id = $1, last_updated = now() WHERE tail_id = ANY ($2)`,

		`INSERT INTO mentions (chunk_id, entity_id)
		SELECT m.chunk_id, $1 FROM mentions m WHERE m.entity_id = ANY ($2)
		ON CONFLICT DO NOTHING`,
		`DELETE FROM mentions WHERE entity_id = ANY ($2)`,

		`DELETE FROM entities WHERE id = ANY ($2)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, canonicalID, dupIDs); err != nil {
			return err
		}
	}

	// Merging both endpoints of one relation leaves a self-loop behind.
	if _, err := tx.Exec(ctx, `DELETE FROM relations WHERE head_id = tail_id`); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Debug("[Store] Entities merged", "canonical", canonical, "duplicates", len(dupIDs))
	return nil
}

// DeleteIsolatedEntities removes entities of the dataset with no relations.
func (s *GraphDBStorage) DeleteIsolatedEntities(ctx context.Context, dataset string) (int, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM entities e
		WHERE NOT EXISTS (
			SELECT 1 FROM relations r WHERE r.head_id = e.id OR r.tail_id = e.id
		)
		AND EXISTS (
			SELECT 1
			FROM mentions m
			JOIN chunks c ON c.id = m.chunk_id
			WHERE m.entity_id = e.id AND c.dataset = $1
		)`,
		dataset,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// BackfillRelationProvenance fills empty relation chunk lists from the
// dataset's chunks mentioning both endpoints.
func (s *GraphDBStorage) BackfillRelationProvenance(ctx context.Context, dataset string) (int, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tag, err := s.conn.Exec(ctx, `
		UPDATE relations r
		SET chunks = sub.ids, last_updated = now()
		FROM (
			SELECT r2.id AS rel_id, array_agg(DISTINCT c.id) AS ids
			FROM relations r2
			JOIN mentions hm ON hm.entity_id = r2.head_id
			JOIN mentions tm ON tm.entity_id = r2.tail_id AND tm.chunk_id = hm.chunk_id
			JOIN chunks c ON c.id = hm.chunk_id
			WHERE c.dataset = $1 AND cardinality(r2.chunks) = 0
			GROUP BY r2.id
		) sub
		WHERE r.id = sub.rel_id`,
		dataset,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteRelations removes the relations with the given IDs.
func (s *GraphDBStorage) DeleteRelations(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx, `DELETE FROM relations WHERE id = ANY ($1)`, ids)
	return err
}

// DeleteEntities removes the entities with the given IDs. Their relations and
// mentions go with them through the schema's cascade rules.
func (s *GraphDBStorage) DeleteEntities(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx, `DELETE FROM entities WHERE id = ANY ($1)`, ids)
	return err
}

// Stats returns the size counters of the dataset's graph.
func (s *GraphDBStorage) Stats(ctx context.Context, dataset string) (*store.GraphStats, error) {
	stats := &store.GraphStats{}
	err := s.conn.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM chunks WHERE dataset = $1),
			(SELECT COUNT(DISTINCT m.entity_id)
				FROM mentions m JOIN chunks c ON c.id = m.chunk_id
				WHERE c.dataset = $1),
			(SELECT COUNT(*) FROM relations r WHERE EXISTS (
				SELECT 1 FROM chunks c WHERE c.dataset = $1 AND c.id = ANY (r.chunks)
			)),
			(SELECT COUNT(*)
				FROM mentions m JOIN chunks c ON c.id = m.chunk_id
				WHERE c.dataset = $1)`,
		dataset,
	).Scan(&stats.Chunks, &stats.Entities, &stats.Relations, &stats.Mentions)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CleanDataset removes all graph data of the dataset. Mentions go first, then
// relations and entities left without any mention, then the chunks.
func (s *GraphDBStorage) CleanDataset(ctx context.Context, dataset string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM mentions m
		USING chunks c
		WHERE c.id = m.chunk_id AND c.dataset = $1`, dataset); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM relations r
		WHERE NOT EXISTS (SELECT 1 FROM mentions m WHERE m.entity_id = r.head_id)
			AND NOT EXISTS (SELECT 1 FROM mentions m WHERE m.entity_id = r.tail_id)`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM entities e
		WHERE NOT EXISTS (SELECT 1 FROM mentions m WHERE m.entity_id = e.id)`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE dataset = $1`, dataset); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("[Store] Dataset cleaned", "dataset", dataset)
	return nil
}

// CleanAll removes all graph data across every dataset.
func (s *GraphDBStorage) CleanAll(ctx context.Context) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx,
		`TRUNCATE mentions, relations, entities, chunks RESTART IDENTITY CASCADE`,
	)
	if err != nil {
		return err
	}

	logger.Info("[Store] All graph data cleaned")
	return nil
}
