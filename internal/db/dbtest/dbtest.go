// Package dbtest opens throwaway in-memory metadata stores for tests.
package dbtest

import (
	"context"
	"testing"

	"rag-assistant/internal/config"
	"rag-assistant/internal/db"
)

// NewStore returns an initialized store over a private in-memory SQLite
// database that is closed when the test ends.
func NewStore(t testing.TB) *db.Store {
	t.Helper()
	bunDB, err := db.Open(&config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.InitDB(context.Background(), bunDB); err != nil {
		t.Fatalf("init db: %v", err)
	}
	store := db.NewStore(bunDB)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
