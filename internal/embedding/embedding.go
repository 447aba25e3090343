package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"rag-assistant/internal/config"
	"rag-assistant/internal/models"
)

// Provider maps text to fixed-dimension vectors. It is safe for concurrent use
// as long as the wrapped embedder is.
type Provider struct {
	embedder  embeddings.Embedder
	dimension int
}

// NewProvider wraps an existing langchaingo embedder.
func NewProvider(embedder embeddings.Embedder, dimension int) *Provider {
	return &Provider{embedder: embedder, dimension: dimension}
}

// New builds the embedder described by cfg.
func New(cfg *config.EmbeddingConfig) (*Provider, error) {
	log.Debug().Interface("config", map[string]any{
		"provider":  cfg.Provider,
		"base_url":  cfg.BaseURL,
		"model":     cfg.Model,
		"dimension": cfg.Dimension,
	}).Msg("Initializing embedder")

	var client embeddings.EmbedderClient
	switch cfg.Provider {
	case config.ProviderOllama:
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
		}
		client = llm
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", models.ErrInvalidArgument, cfg.Provider)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	return NewProvider(embedder, cfg.Dimension), nil
}

// Dimension is the length of every vector this provider returns.
func (p *Provider) Dimension() int {
	return p.dimension
}

// Embed returns one vector per text, in input order. Any failure fails the
// whole batch.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", models.ErrEmbeddingUnavailable, len(texts), len(vectors))
	}
	for i, v := range vectors {
		if err := p.checkDimension(v); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	if err := p.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (p *Provider) checkDimension(v []float32) error {
	if len(v) != p.dimension {
		return fmt.Errorf("%w: model returned %d-dimensional vector, expected %d", models.ErrEmbeddingUnavailable, len(v), p.dimension)
	}
	return nil
}
