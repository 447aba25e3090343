package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"rag-assistant/internal/chunker"
	"rag-assistant/internal/db"
	"rag-assistant/internal/helper"
	"rag-assistant/internal/metrics"
	"rag-assistant/internal/models"
	"rag-assistant/internal/vectordb"
)

// Embedder turns chunk texts into vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// MetadataStore runs document bookkeeping in a single transaction.
type MetadataStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx *db.Tx) error) error
}

// Orchestrator ingests a document into the vector index and the metadata
// store. Chunks are embedded and upserted first; the document and chunk rows
// are then written in one short transaction. A failure before that commit
// leaves no metadata behind. Vectors upserted before a failed commit stay in
// the index unreferenced.
type Orchestrator struct {
	store    MetadataStore
	embedder Embedder
	index    vectordb.Index
}

func NewOrchestrator(store MetadataStore, embedder Embedder, index vectordb.Index) *Orchestrator {
	return &Orchestrator{store: store, embedder: embedder, index: index}
}

// Ingest chunks text with strategy and stores it under filename.
func (o *Orchestrator) Ingest(ctx context.Context, filename, text string, strategy models.Strategy) (*models.IngestResult, error) {
	result, err := o.ingest(ctx, filename, text, strategy)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Str("strategy", string(strategy)).Msg("Ingestion failed")
		return nil, err
	}

	metrics.DocumentsIngested.WithLabelValues(string(strategy)).Inc()
	metrics.ChunksIngested.WithLabelValues(string(strategy)).Add(float64(result.ChunksCreated))
	log.Info().
		Int64("document_id", result.DocumentID).
		Str("filename", filename).
		Str("strategy", string(strategy)).
		Int("chunks", result.ChunksCreated).
		Msg("Document ingested")

	return result, nil
}

func (o *Orchestrator) ingest(ctx context.Context, filename, text string, strategy models.Strategy) (*models.IngestResult, error) {
	chunks, err := o.indexChunks(ctx, text, strategy)
	if err != nil {
		return nil, err
	}

	// no network calls inside the transaction: sqlite runs on one connection
	result := &models.IngestResult{ChunksCreated: len(chunks)}
	err = o.store.InTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		docID, err := tx.CreateDocument(ctx, filename)
		if err != nil {
			return err
		}
		for i := range chunks {
			chunks[i].DocumentID = docID
		}
		if err := tx.CreateChunkRecords(ctx, chunks); err != nil {
			return err
		}
		result.DocumentID = docID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// indexChunks chunks text, assigns fresh ids, embeds every chunk in one call
// and upserts them in one batch. The returned chunks carry no document id.
func (o *Orchestrator) indexChunks(ctx context.Context, text string, strategy models.Strategy) ([]models.Chunk, error) {
	pieces, err := chunker.Chunk(text, strategy)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, nil
	}

	ids, err := helper.NewChunkIDs(len(pieces))
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = models.Chunk{ID: ids[i], Index: i, Strategy: strategy, Text: p}
	}

	vectors, err := o.embedder.Embed(ctx, pieces)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}

	entries := make([]vectordb.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectordb.Entry{ID: c.ID, Vector: vectors[i], Text: c.Text}
	}
	if err := o.index.Upsert(ctx, entries); err != nil {
		return nil, err
	}
	return chunks, nil
}
