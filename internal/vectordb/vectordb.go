package vectordb

import (
	"context"
	"fmt"

	"rag-assistant/internal/models"
)

// Entry is one indexed chunk: its id, embedding and text payload.
type Entry struct {
	ID     string
	Vector []float32
	Text   string
}

// Match is a query hit. Score is cosine similarity, higher is closer.
type Match struct {
	ID    string
	Score float32
	Text  string
}

// Index stores entries and answers nearest-neighbour queries by cosine
// similarity. Upsert overwrites entries with an existing id. Query returns
// at most topK matches sorted by non-increasing score.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Close() error
}

func validateEntries(entries []Entry, dimension int) error {
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry id is required", models.ErrInvalidArgument)
		}
		if len(e.Vector) != dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions, index expects %d", models.ErrInvalidArgument, e.ID, len(e.Vector), dimension)
		}
	}
	return nil
}

func validateQuery(vector []float32, topK, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: query has %d dimensions, index expects %d", models.ErrInvalidArgument, len(vector), dimension)
	}
	if topK <= 0 {
		return fmt.Errorf("%w: topK must be positive, got %d", models.ErrInvalidArgument, topK)
	}
	return nil
}
