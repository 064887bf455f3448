package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/hopgraph/hopgraph/internal/util"
	"github.com/hopgraph/hopgraph/pkg/common"
	"github.com/hopgraph/hopgraph/pkg/logger"
)

// ChunkHashes returns the stored content hash of every chunk of the dataset,
// keyed by chunk ID.
func (s *GraphDBStorage) ChunkHashes(ctx context.Context, dataset string) (map[string]string, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, text_hash FROM chunks WHERE dataset = $1`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		hashes[id] = hash
	}
	return hashes, rows.Err()
}

// SaveChunk upserts a chunk together with its embedding.
func (s *GraphDBStorage) SaveChunk(ctx context.Context, chunk common.Chunk, embedding []float32) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		INSERT INTO chunks (id, dataset, ordinal, source, text, text_hash, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			text = EXCLUDED.text,
			text_hash = EXCLUDED.text_hash,
			embedding = EXCLUDED.embedding,
			updated_at = now()`,
		chunk.ID,
		chunk.Dataset,
		chunk.Ordinal,
		chunk.Source,
		util.SanitizePostgresText(chunk.Text),
		chunk.Hash,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return err
	}

	logger.Debug("[Store] Chunk saved", "chunk", chunk.ID)
	return nil
}

// GetChunks returns all chunks of the dataset in ordinal order.
func (s *GraphDBStorage) GetChunks(ctx context.Context, dataset string) ([]common.Chunk, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, dataset, ordinal, source, text, text_hash
		FROM chunks
		WHERE dataset = $1
		ORDER BY ordinal`,
		dataset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []common.Chunk
	for rows.Next() {
		var c common.Chunk
		if err := rows.Scan(&c.ID, &c.Dataset, &c.Ordinal, &c.Source, &c.Text, &c.Hash); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SearchChunks returns the topK chunks most similar to the query embedding,
// scored by cosine similarity, best first.
func (s *GraphDBStorage) SearchChunks(
	ctx context.Context,
	dataset string,
	embedding []float32,
	topK int,
) ([]common.ScoredChunk, error) {
	embed := pgvector.NewVector(embedding)

	rows, err := s.conn.Query(ctx, `
		SELECT id, dataset, ordinal, source, text, text_hash,
			1 - (embedding <=> $2) AS score
		FROM chunks
		WHERE dataset = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2, ordinal
		LIMIT $3`,
		dataset, embed, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []common.ScoredChunk
	for rows.Next() {
		var sc common.ScoredChunk
		if err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.Dataset,
			&sc.Chunk.Ordinal,
			&sc.Chunk.Source,
			&sc.Chunk.Text,
			&sc.Chunk.Hash,
			&sc.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}
