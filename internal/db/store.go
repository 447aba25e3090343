package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"rag-assistant/internal/models"
)

// Store is the document/chunk bookkeeping and booking store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers that share the connection.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Tx is the write surface available inside InTx. Nothing written through it
// is visible to other callers until InTx returns nil.
type Tx struct {
	tx bun.Tx
}

// InTx runs fn in one transaction, committing only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
}

// CreateDocument inserts a document row and returns its id.
func (t *Tx) CreateDocument(ctx context.Context, filename string) (int64, error) {
	doc := &Document{Filename: filename, Timestamp: time.Now().UTC()}
	if _, err := t.tx.NewInsert().Model(doc).Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: failed to create document: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return doc.ID, nil
}

// CreateChunkRecords inserts one row per chunk in a single statement.
func (t *Tx) CreateChunkRecords(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = Chunk{
			ChunkID:          c.ID,
			DocumentID:       c.DocumentID,
			ChunkIndex:       c.Index,
			ChunkingStrategy: string(c.Strategy),
		}
	}
	if _, err := t.tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to create chunk records: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return nil
}

// GetDocument returns nil when no document has id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	doc := new(Document)
	err := s.db.NewSelect().Model(doc).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return doc, nil
}

// ListChunks returns a document's chunk records ordered by chunk index.
func (s *Store) ListChunks(ctx context.Context, documentID int64) ([]Chunk, error) {
	var chunks []Chunk
	err := s.db.NewSelect().
		Model(&chunks).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return chunks, nil
}

// CountDocuments counts committed documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return n, nil
}

// CreateBooking inserts b and fills its id.
func (s *Store) CreateBooking(ctx context.Context, b *InterviewBooking) error {
	if _, err := s.db.NewInsert().Model(b).Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to create booking: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
