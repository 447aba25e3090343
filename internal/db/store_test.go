package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant/internal/db"
	"rag-assistant/internal/db/dbtest"
	"rag-assistant/internal/models"
)

func TestStore_InTxCommit(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	var docID int64
	err := store.InTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		id, err := tx.CreateDocument(ctx, "handbook.txt")
		if err != nil {
			return err
		}
		docID = id
		return tx.CreateChunkRecords(ctx, []models.Chunk{
			{ID: "c-1", DocumentID: id, Index: 0, Strategy: models.StrategySimple},
			{ID: "c-0", DocumentID: id, Index: 1, Strategy: models.StrategySimple},
		})
	})
	require.NoError(t, err)
	require.NotZero(t, docID)

	doc, err := store.GetDocument(ctx, docID)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "handbook.txt", doc.Filename)
	assert.WithinDuration(t, time.Now(), doc.Timestamp, time.Minute)

	chunks, err := store.ListChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c-1", chunks[0].ChunkID)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, "simple", chunks[1].ChunkingStrategy)
}

func TestStore_InTxRollback(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()
	boom := errors.New("upsert failed")

	err := store.InTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		id, err := tx.CreateDocument(ctx, "lost.txt")
		require.NoError(t, err)
		require.NoError(t, tx.CreateChunkRecords(ctx, []models.Chunk{{ID: "c-x", DocumentID: id, Strategy: models.StrategyParagraph}}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ChunkIDUnique(t *testing.T) {
	store := dbtest.NewStore(t)
	ctx := context.Background()

	err := store.InTx(ctx, func(ctx context.Context, tx *db.Tx) error {
		id, err := tx.CreateDocument(ctx, "dup.txt")
		if err != nil {
			return err
		}
		return tx.CreateChunkRecords(ctx, []models.Chunk{
			{ID: "same", DocumentID: id, Index: 0, Strategy: models.StrategySimple},
			{ID: "same", DocumentID: id, Index: 1, Strategy: models.StrategySimple},
		})
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMetadataStoreUnavailable))
}

func TestStore_GetDocumentMissing(t *testing.T) {
	store := dbtest.NewStore(t)

	doc, err := store.GetDocument(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStore_CreateBooking(t *testing.T) {
	store := dbtest.NewStore(t)
	slot := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	b := &db.InterviewBooking{Name: "Sam", Email: "sam@example.com", Datetime: slot}
	require.NoError(t, store.CreateBooking(context.Background(), b))
	assert.NotZero(t, b.ID)
}
