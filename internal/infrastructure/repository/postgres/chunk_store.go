package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// ChunkStore reads pre-computed document chunks. The ingestion pipeline
// owns the table and the embedding column; this store never writes.
type ChunkStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewChunkStore(db *sql.DB, logger *slog.Logger) *ChunkStore {
	return &ChunkStore{db: db, logger: logger}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const searchVectorQuery = `
SELECT c.id, c.document_id, c.content, c.chunk_index, c.section_path, d.title, c.metadata,
	1 - (c.embedding <=> $1::vector) AS similarity
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.organization_id = $2 AND d.dataset_id = $3
ORDER BY c.embedding <=> $1::vector
LIMIT $4
`

// SearchVector ranks chunks by cosine similarity to the query vector.
func (s *ChunkStore) SearchVector(ctx context.Context, scope domain.RetrieveOpts, vector []float32, limit int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, searchVectorQuery,
		pgvector.NewVector(vector), scope.OrganizationID, scope.DatasetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search query: %w", err)
	}
	defer rows.Close()

	return s.scanCandidates(rows, func(c *domain.Candidate, score float64) {
		c.VectorScore = score
	})
}

const searchLexicalQuery = `
SELECT c.id, c.document_id, c.content, c.chunk_index, c.section_path, d.title, c.metadata,
	ts_rank_cd(to_tsvector('english', c.content), to_tsquery('english', $1)) AS rank
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.organization_id = $2 AND d.dataset_id = $3
	AND to_tsvector('english', c.content) @@ to_tsquery('english', $1)
ORDER BY rank DESC
LIMIT $4
`

// SearchLexical ranks chunks with full-text search. The tsquery argument
// is the pre-tokenized AND-joined form built by the caller; raw rank
// values come back unnormalized.
func (s *ChunkStore) SearchLexical(ctx context.Context, scope domain.RetrieveOpts, query string, limit int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, searchLexicalQuery,
		query, scope.OrganizationID, scope.DatasetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("lexical search query: %w", err)
	}
	defer rows.Close()

	return s.scanCandidates(rows, func(c *domain.Candidate, score float64) {
		c.TextScore = score
	})
}

func (s *ChunkStore) scanCandidates(rows *sql.Rows, assign func(*domain.Candidate, float64)) ([]domain.Candidate, error) {
	var out []domain.Candidate
	for rows.Next() {
		var (
			c           domain.Candidate
			sectionPath sql.NullString
			title       sql.NullString
			metaRaw     []byte
			score       float64
		)
		if err := rows.Scan(
			&c.Chunk.ID, &c.Chunk.DocumentID, &c.Chunk.Content, &c.Chunk.ChunkIndex,
			&sectionPath, &title, &metaRaw, &score,
		); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		c.Chunk.SectionPath = sectionPath.String
		c.Chunk.Title = title.String
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &c.Chunk.Metadata); err != nil {
				// Malformed metadata degrades to the zero value; the
				// chunk stays retrievable, filters just skip it.
				s.logger.Warn("chunk_metadata_malformed",
					slog.String("chunk_id", c.Chunk.ID),
					slog.String("error", err.Error()),
				)
				c.Chunk.Metadata = domain.ElementMetadata{}
			}
		}
		assign(&c, score)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}
	return out, nil
}
