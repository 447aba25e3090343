package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-assistant/internal/models"
)

// DefaultTTL is how long a session's history survives after its last write.
const DefaultTTL = 24 * time.Hour

// Store keeps per-session conversational history as a Redis list of JSON
// turns, oldest first.
type Store struct {
	client   redis.UniversalClient
	prefix   string
	maxTurns int
	ttl      time.Duration
}

// NewStore returns a store holding at most models.MaxHistoryTurns turns per
// session. prefix is prepended to every session id to form the Redis key.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		client:   client,
		prefix:   prefix,
		maxTurns: models.MaxHistoryTurns,
		ttl:      DefaultTTL,
	}
}

// Connect parses a redis:// url and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", models.ErrSessionStoreUnavailable, err)
	}
	return client, nil
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Append pushes turn to the tail of the session, trims the list to the most
// recent turns and resets expiry. The three commands run in one MULTI/EXEC
// so concurrent writers on the same session cannot interleave.
func (s *Store) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := s.key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append history: %w", models.ErrSessionStoreUnavailable, err)
	}
	return nil
}

// Read returns the session's turns oldest first, or an empty slice when the
// session does not exist or has expired.
func (s *Store) Read(ctx context.Context, sessionID string) ([]models.Turn, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read history: %w", models.ErrSessionStoreUnavailable, err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("%w: decode history: %w", models.ErrSessionStoreUnavailable, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
