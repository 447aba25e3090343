package models

import (
	"fmt"
	"strings"
)

// Strategy names a chunking policy.
type Strategy string

const (
	StrategySimple    Strategy = "simple"
	StrategyParagraph Strategy = "paragraph"
)

// ParseStrategy accepts the wire names case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategySimple:
		return StrategySimple, nil
	case StrategyParagraph:
		return StrategyParagraph, nil
	}
	return "", fmt.Errorf("%w: invalid chunking strategy %q", ErrInvalidArgument, s)
}

// Chunk is one retrievable unit of a document. ID is globally unique and
// doubles as the vector index key.
type Chunk struct {
	ID         string
	DocumentID int64
	Index      int
	Strategy   Strategy
	Text       string
}

// IngestResult is returned by a successful ingestion.
type IngestResult struct {
	DocumentID    int64 `json:"document_id"`
	ChunksCreated int   `json:"chunks_created"`
}

// Turn is one query/response exchange in a session.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
