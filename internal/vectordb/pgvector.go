package vectordb

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"rag-assistant/internal/models"
)

type vectorEntry struct {
	bun.BaseModel `bun:"table:vector_entries,alias:ve"`
	ID            string          `bun:"id,pk"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull"`
	Score         float32         `bun:"score,scanonly"`
}

// PgvectorIndex is an Index stored in Postgres with the pgvector extension.
// Equal scores are ordered by id.
type PgvectorIndex struct {
	db        *bun.DB
	dimension int
	ownsDB    bool
}

// NewPgvectorIndex ensures the extension, table and HNSW cosine index exist.
// When ownsDB is set, Close closes db.
func NewPgvectorIndex(ctx context.Context, db *bun.DB, dimension int, ownsDB bool) (*PgvectorIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", models.ErrInvalidArgument)
	}
	s := &PgvectorIndex{db: db, dimension: dimension, ownsDB: ownsDB}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PgvectorIndex) ensureIndex(ctx context.Context) error {
	ddl := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vector_entries (
  id        text PRIMARY KEY,
  content   text NOT NULL,
  embedding vector(%d) NOT NULL
)`, s.dimension),
		"CREATE INDEX IF NOT EXISTS vector_entries_embedding_idx ON vector_entries USING hnsw (embedding vector_cosine_ops)",
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", models.ErrIndexUnavailable, err)
		}
	}
	log.Debug().Int("dimension", s.dimension).Msg("pgvector index ready")
	return nil
}

// Upsert writes all entries in one statement.
func (s *PgvectorIndex) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries(entries, s.dimension); err != nil {
		return err
	}

	rows := make([]vectorEntry, len(entries))
	for i, e := range entries {
		rows[i] = vectorEntry{ID: e.ID, Content: e.Text, Embedding: pgvector.NewVector(e.Vector)}
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert vectors: %w", models.ErrIndexUnavailable, err)
	}
	return nil
}

// Query ranks by cosine distance and reports 1-distance as the score.
func (s *PgvectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if err := validateQuery(vector, topK, s.dimension); err != nil {
		return nil, err
	}

	q := pgvector.NewVector(vector)
	var rows []vectorEntry
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "content").
		ColumnExpr("1 - (embedding <=> ?) AS score", q).
		OrderExpr("embedding <=> ?", q).
		OrderExpr("id ASC").
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query by similarity: %w", models.ErrIndexUnavailable, err)
	}

	matches := make([]Match, len(rows))
	for i, r := range rows {
		matches[i] = Match{ID: r.ID, Score: r.Score, Text: r.Content}
	}
	return matches, nil
}

func (s *PgvectorIndex) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
