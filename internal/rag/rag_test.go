package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant/internal/models"
	"rag-assistant/internal/session"
	"rag-assistant/internal/vectordb"
)

type fixedEmbedder struct {
	err error
}

func (f fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

type brokenHistory struct{}

func (brokenHistory) Append(context.Context, string, models.Turn) error {
	return fmt.Errorf("%w: connection reset", models.ErrSessionStoreUnavailable)
}

func newIndex(t *testing.T, texts ...string) *vectordb.ChromemIndex {
	t.Helper()
	idx, err := vectordb.NewChromemIndex(vectordb.ChromemOptions{Collection: "rag", InMemory: true, Dimension: 3})
	require.NoError(t, err)
	entries := make([]vectordb.Entry, len(texts))
	for i, text := range texts {
		entries[i] = vectordb.Entry{ID: fmt.Sprintf("c%d", i), Vector: []float32{1, float32(i) / 10, 0}, Text: text}
	}
	require.NoError(t, idx.Upsert(context.Background(), entries))
	return idx
}

func newSessions(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewStore(client, "chat:")
}

func TestAnswer_NoContext(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(t)
	r := NewRAG(fixedEmbedder{}, newIndex(t), sessions)

	got, err := r.Answer(ctx, "What is the refund policy?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "I couldn't find any relevant information in the documents.", got)

	turns, err := sessions.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []models.Turn{{User: "What is the refund policy?", Bot: got}}, turns)
}

func TestAnswer_SelectsMatchingSentence(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(t)
	r := NewRAG(fixedEmbedder{}, newIndex(t, "Our refund policy allows returns within 30 days."), sessions)

	got, err := r.Answer(ctx, "What is the refund policy?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Based on the document, here's what I found:\nOur refund policy allows returns within 30 days.", got)

	turns, err := sessions.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, got, turns[0].Bot)
}

func TestAnswer_RelatedWithoutAnswer(t *testing.T) {
	r := NewRAG(fixedEmbedder{}, newIndex(t, "Shipping takes a week."), newSessions(t))

	got, err := r.Answer(context.Background(), "refund?", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.RelatedNoAnswer, got)
}

func TestAnswer_HistoryFailureStillAnswers(t *testing.T) {
	r := NewRAG(fixedEmbedder{}, newIndex(t, "Refunds take five days."), brokenHistory{})

	got, err := r.Answer(context.Background(), "refunds", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.AnswerPrefix+"Refunds take five days.", got)
}

func TestAnswer_EmbeddingFailureAborts(t *testing.T) {
	ctx := context.Background()
	sessions := newSessions(t)
	r := NewRAG(fixedEmbedder{err: fmt.Errorf("%w: model offline", models.ErrEmbeddingUnavailable)}, newIndex(t), sessions)

	_, err := r.Answer(ctx, "anything", "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))

	turns, err := sessions.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAnswer_UsesAtMostTopK(t *testing.T) {
	texts := []string{"alpha one.", "alpha two.", "alpha three.", "alpha four."}
	r := NewRAG(fixedEmbedder{}, newIndex(t, texts...), newSessions(t))

	got, err := r.Answer(context.Background(), "alpha", "s1")
	require.NoError(t, err)
	assert.Contains(t, got, models.AnswerPrefix)
	assert.NotContains(t, got, "four")
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		context string
		want    string
		outcome Outcome
	}{
		{
			name:    "first two relevant sentences",
			query:   "cat",
			context: "A cat sat. The dog ran. Cats purr! Another cat? End.",
			want:    models.AnswerPrefix + "A cat sat. Cats purr!",
			outcome: OutcomeMatched,
		},
		{
			name:    "case insensitive substring",
			query:   "REFUND",
			context: "Refunds are manual.",
			want:    models.AnswerPrefix + "Refunds are manual.",
			outcome: OutcomeMatched,
		},
		{
			name:    "no sentence matches",
			query:   "pricing",
			context: "We ship worldwide.",
			want:    models.RelatedNoAnswer,
			outcome: OutcomeRelated,
		},
		{
			name:    "whitespace context",
			query:   "pricing",
			context: "  \n ",
			want:    models.NoRelevantContent,
			outcome: OutcomeNone,
		},
		{
			name:    "query without words",
			query:   "?!",
			context: "Some text.",
			want:    models.RelatedNoAnswer,
			outcome: OutcomeRelated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Compose(tt.query, tt.context)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "the", "refund", "policy"}, Tokenize("What is the refund policy?"))
	assert.Equal(t, []string{"café", "façade_2", "x", "y"}, Tokenize("Café façade_2 x-y"))
	assert.Empty(t, Tokenize("... !!!"))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"Hi.", "There!", "Go?", "End"}, SplitSentences("Hi. There!  Go?\nEnd"))
	assert.Equal(t, []string{"Pi is 3.14 exactly."}, SplitSentences("Pi is 3.14 exactly."))
	assert.Equal(t, []string{""}, SplitSentences(""))
}
