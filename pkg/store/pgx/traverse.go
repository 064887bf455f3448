package pgx

import (
	"context"

	"github.com/hopgraph/hopgraph/pkg/store"
)

// ChunkEntities returns the entity names mentioned in each given chunk.
func (s *GraphDBStorage) ChunkEntities(ctx context.Context, chunkIDs []string) (map[string][]string, error) {
	if len(chunkIDs) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT m.chunk_id, e.name
		FROM mentions m
		JOIN entities e ON e.id = m.entity_id
		WHERE m.chunk_id = ANY ($1)
		ORDER BY m.chunk_id, e.name`,
		chunkIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make(map[string][]string)
	for rows.Next() {
		var chunkID, name string
		if err := rows.Scan(&chunkID, &name); err != nil {
			return nil, err
		}
		entities[chunkID] = append(entities[chunkID], name)
	}
	return entities, rows.Err()
}

// NeighborChunks walks the relation graph outward from the seed entities, up
// to maxHops hops, and returns chunks that mention the reached entities. Each
// chunk is annotated with the seed it was reached from and the smallest hop
// count; chunks mentioning only the seeds themselves are not included.
func (s *GraphDBStorage) NeighborChunks(
	ctx context.Context,
	dataset string,
	seeds []string,
	maxHops int,
	limit int,
) ([]store.NeighborChunk, error) {
	if len(seeds) == 0 || maxHops <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH RECURSIVE frontier (entity_id, seed, hops) AS (
			SELECT id, name, 0
			FROM entities
			WHERE name = ANY ($1::text[])
			UNION
			SELECT
				CASE WHEN r.head_id = f.entity_id THEN r.tail_id ELSE r.head_id END,
				f.seed,
				f.hops + 1
			FROM frontier f
			JOIN relations r ON r.head_id = f.entity_id OR r.tail_id = f.entity_id
			WHERE f.hops < $2
		),
		reached AS (
			SELECT entity_id, seed, MIN(hops) AS hops
			FROM frontier
			WHERE hops > 0
			GROUP BY entity_id, seed
		)
		SELECT c.id, c.dataset, c.ordinal, c.source, c.text, c.text_hash,
			rc.seed, MIN(rc.hops) AS hops
		FROM reached rc
		JOIN mentions m ON m.entity_id = rc.entity_id
		JOIN chunks c ON c.id = m.chunk_id
		WHERE c.dataset = $3
		GROUP BY c.id, c.dataset, c.ordinal, c.source, c.text, c.text_hash, rc.seed
		ORDER BY hops, c.ordinal
		LIMIT $4`,
		seeds, maxHops, dataset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbors []store.NeighborChunk
	for rows.Next() {
		var n store.NeighborChunk
		if err := rows.Scan(
			&n.Chunk.ID,
			&n.Chunk.Dataset,
			&n.Chunk.Ordinal,
			&n.Chunk.Source,
			&n.Chunk.Text,
			&n.Chunk.Hash,
			&n.Seed,
			&n.Hops,
		); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}
