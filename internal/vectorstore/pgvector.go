package vectorstore

import (
	"context"
	"fmt"

	"docchat-platform/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStore keeps every collection in one table, partitioned by a
// collection column.
type PgVectorStore struct {
	pool *pgxpool.Pool
	dims int
}

func NewPgVectorStore(pool *pgxpool.Pool, dims int) *PgVectorStore {
	return &PgVectorStore{pool: pool, dims: dims}
}

// Migrate creates the extension, table and index when missing
func (s *PgVectorStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_vectors (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			job_id TEXT,
			filename TEXT,
			source TEXT,
			page INT,
			position INT NOT NULL,
			PRIMARY KEY (collection, id)
		)`, s.dims),
		`CREATE TABLE IF NOT EXISTS vector_collections (name TEXT PRIMARY KEY, created_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate pgvector: %w", err)
		}
	}
	return nil
}

func (s *PgVectorStore) EnsureCollection(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO vector_collections (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	return nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, name string, points []models.VectorPoint) error {
	const q = `
		INSERT INTO chunk_vectors (collection, id, content, embedding, job_id, filename, source, page, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (collection, id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			job_id = EXCLUDED.job_id,
			filename = EXCLUDED.filename,
			source = EXCLUDED.source,
			page = EXCLUDED.page,
			position = EXCLUDED.position
	`
	batch := &pgx.Batch{}
	for _, p := range points {
		m := p.Metadata
		batch.Queue(q, name, p.ID, p.Content, pgvector.NewVector(p.Vector), m.JobID, m.Filename, m.Source, m.Page, m.Order)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (s *PgVectorStore) Search(ctx context.Context, name string, vector []float32, k int) ([]models.ScoredChunk, error) {
	const q = `
		SELECT content, job_id, filename, source, page, position, 1 - (embedding <=> $2) AS score
		FROM chunk_vectors
		WHERE collection = $1
		ORDER BY embedding <=> $2, position
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, q, name, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			hit                     models.ScoredChunk
			jobID, filename, source *string
			page                    *int
		)
		if err := rows.Scan(&hit.Content, &jobID, &filename, &source, &page, &hit.Metadata.Order, &hit.Score); err != nil {
			return nil, err
		}
		hit.Metadata.JobID = deref(jobID)
		hit.Metadata.Filename = deref(filename)
		hit.Metadata.Source = deref(source)
		if page != nil {
			hit.Metadata.Page = *page
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

func (s *PgVectorStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM vector_collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PgVectorStore) DropCollection(ctx context.Context, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunk_vectors WHERE collection = $1`, name); err != nil {
		return fmt.Errorf("drop collection vectors: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM vector_collections WHERE name = $1`, name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return tx.Commit(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*PgVectorStore)(nil)
