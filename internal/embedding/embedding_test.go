package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"rag-assistant/internal/config"
	"rag-assistant/internal/models"
)

// hashClient derives a vector from the text bytes so equal inputs always
// produce equal outputs.
type hashClient struct {
	dim   int
	calls int
	err   error
}

func (c *hashClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, c.dim)
		for j := range v {
			h := fnv.New32a()
			_, _ = h.Write([]byte{byte(j)})
			_, _ = h.Write([]byte(text))
			v[j] = float32(h.Sum32()%1000) / 1000
		}
		out[i] = v
	}
	return out, nil
}

func newTestProvider(t *testing.T, client *hashClient, dim, batch int) *Provider {
	t.Helper()
	e, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batch))
	require.NoError(t, err)
	return NewProvider(e, dim)
}

func TestProvider_EmbedOrderPreserving(t *testing.T) {
	p := newTestProvider(t, &hashClient{dim: 8}, 8, 512)
	ctx := context.Background()

	both, err := p.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, both, 2)

	first, err := p.Embed(ctx, []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, first[0], both[0])

	q, err := p.EmbedQuery(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, both[1], q)
}

func TestProvider_EmbedBatches(t *testing.T) {
	client := &hashClient{dim: 4}
	p := newTestProvider(t, client, 4, 2)

	vectors, err := p.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 3, client.calls)
}

func TestProvider_EmbedEmpty(t *testing.T) {
	client := &hashClient{dim: 4}
	p := newTestProvider(t, client, 4, 2)

	vectors, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Zero(t, client.calls)
}

func TestProvider_Unavailable(t *testing.T) {
	p := newTestProvider(t, &hashClient{dim: 4, err: errors.New("connection refused")}, 4, 8)

	_, err := p.Embed(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))
	assert.Contains(t, err.Error(), "connection refused")

	_, err = p.EmbedQuery(context.Background(), "a")
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))
}

func TestProvider_DimensionMismatch(t *testing.T) {
	p := newTestProvider(t, &hashClient{dim: 3}, 384, 8)

	_, err := p.Embed(context.Background(), []string{"a"})
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))

	_, err = p.EmbedQuery(context.Background(), "a")
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(&config.EmbeddingConfig{Provider: "cohere", Dimension: 384})
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestNew_Ollama(t *testing.T) {
	p, err := New(&config.EmbeddingConfig{
		Provider:  config.ProviderOllama,
		BaseURL:   "http://localhost:11434",
		Model:     "all-minilm",
		Dimension: 384,
		BatchSize: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, 384, p.Dimension())
}
