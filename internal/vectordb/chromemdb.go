package vectordb

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"rag-assistant/internal/models"
)

// ChromemOptions configures the embedded chromem-go index.
type ChromemOptions struct {
	Path          string
	Collection    string
	InMemory      bool
	Compress      bool
	EncryptionKey string
	Dimension     int
}

// ChromemIndex is an Index backed by a chromem-go collection. chromem ranks
// by cosine similarity over normalized vectors; equal scores come back in
// no particular order.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	opts       ChromemOptions
}

// NewChromemIndex opens (or creates) the database and makes sure the
// collection exists.
func NewChromemIndex(opts ChromemOptions) (*ChromemIndex, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", models.ErrInvalidArgument)
	}

	var db *chromem.DB
	var err error
	if opts.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create database: %w", models.ErrIndexUnavailable, err)
		}
	}

	metadata := map[string]string{
		"dimension": strconv.Itoa(opts.Dimension),
		"metric":    "cosine",
	}
	// embedding func is never used: every document and query carries its vector
	c, err := db.GetOrCreateCollection(opts.Collection, metadata, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create/get collection: %w", models.ErrIndexUnavailable, err)
	}

	log.Debug().
		Str("collection", opts.Collection).
		Bool("in_memory", opts.InMemory).
		Int("documents", c.Count()).
		Msg("Vector index ready")

	return &ChromemIndex{db: db, collection: c, opts: opts}, nil
}

// Upsert adds or replaces entries in one call.
func (m *ChromemIndex) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries(entries, m.opts.Dimension); err != nil {
		return err
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Metadata:  map[string]string{models.PayloadTextKey: e.Text},
			Embedding: e.Vector,
		}
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: failed to add documents: %w", models.ErrIndexUnavailable, err)
	}
	return nil
}

// Query returns up to topK entries closest to vector.
func (m *ChromemIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if err := validateQuery(vector, topK, m.opts.Dimension); err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection
	n := min(topK, m.collection.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query by similarity: %w", models.ErrIndexUnavailable, err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		text := r.Content
		if t, ok := r.Metadata[models.PayloadTextKey]; ok {
			text = t
		}
		matches[i] = Match{ID: r.ID, Score: r.Similarity, Text: text}
	}
	return matches, nil
}

// Count is the number of entries in the collection.
func (m *ChromemIndex) Count() int {
	return m.collection.Count()
}

// Export writes an encrypted snapshot of the collection to filePath.
func (m *ChromemIndex) Export(filePath string) error {
	if len(m.opts.EncryptionKey) != 32 {
		return fmt.Errorf("%w: encryption key must be 32 bytes", models.ErrInvalidArgument)
	}
	if filePath == "" {
		filePath = filepath.Join(m.opts.Path, m.opts.Collection+".chromem")
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", filePath).
		Bool("compress", m.opts.Compress).
		Msg("Exporting collection")

	if err := m.db.ExportToFile(filePath, m.opts.Compress, m.opts.EncryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("%w: failed to export database: %w", models.ErrIndexUnavailable, err)
	}
	return nil
}

// Import loads a snapshot written by Export into the collection.
func (m *ChromemIndex) Import(filePath string) error {
	if err := m.db.ImportFromFile(filePath, m.opts.EncryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("%w: failed to import database: %w", models.ErrIndexUnavailable, err)
	}
	c := m.db.GetCollection(m.collection.Name, nil)
	if c != nil {
		m.collection = c
	}
	return nil
}

// Close is a no-op: persistent chromem writes every document as it is added.
func (m *ChromemIndex) Close() error {
	return nil
}
