package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// NewChunkID returns a random UUID used as a chunk's vector index key.
// Ids are not derived from content, so re-ingesting a text yields new ids.
func NewChunkID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate chunk id: %w", err)
	}
	return id.String(), nil
}

// NewChunkIDs returns n distinct chunk ids.
func NewChunkIDs(n int) ([]string, error) {
	ids := make([]string, n)
	for i := range ids {
		id, err := NewChunkID()
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// EnsureDir creates path and its parents if missing.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}
