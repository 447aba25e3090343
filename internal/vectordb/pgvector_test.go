package vectordb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant/internal/config"
	"rag-assistant/internal/db"
)

// Runs against a real pgvector-enabled Postgres when RAG_TEST_PG_DSN is set.
func TestPgvectorIndex_Integration(t *testing.T) {
	dsn := os.Getenv("RAG_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("RAG_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	bunDB, err := db.Open(&config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	_, err = bunDB.ExecContext(ctx, "DROP TABLE IF EXISTS vector_entries")
	require.NoError(t, err)

	idx, err := NewPgvectorIndex(ctx, bunDB, 3, true)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: "x", Vector: []float32{1, 0, 0}, Text: "about x"},
		{ID: "y", Vector: []float32{0, 1, 0}, Text: "about y"},
		{ID: "xy", Vector: []float32{1, 1, 0}, Text: "about x and y"},
	}))
	require.NoError(t, idx.Upsert(ctx, []Entry{{ID: "y", Vector: []float32{0, 1, 0}, Text: "y again"}}))

	matches, err := idx.Query(ctx, []float32{0, 1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "y", matches[0].ID)
	assert.Equal(t, "y again", matches[0].Text)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}
