package rag

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"rag-assistant/internal/metrics"
	"rag-assistant/internal/models"
	"rag-assistant/internal/vectordb"
)

var (
	wordPattern     = regexp.MustCompile(models.WordRegex)
	sentencePattern = regexp.MustCompile(models.SentenceBoundary)
)

// Outcome labels which branch produced an answer.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeRelated Outcome = "related"
	OutcomeNone    Outcome = "none"
)

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// HistoryWriter records a finished exchange for a session.
type HistoryWriter interface {
	Append(ctx context.Context, sessionID string, turn models.Turn) error
}

// RAG answers queries from indexed chunks. History is written after every
// answer but never read back into retrieval.
type RAG struct {
	embedder QueryEmbedder
	index    vectordb.Index
	history  HistoryWriter
	topK     int
}

func NewRAG(embedder QueryEmbedder, index vectordb.Index, history HistoryWriter) *RAG {
	return &RAG{embedder: embedder, index: index, history: history, topK: models.DefaultTopK}
}

// Answer retrieves the closest chunks for query, picks out the sentences that
// mention a query word and records the exchange under sessionID. A failed
// history write is logged and does not affect the returned answer.
func (r *RAG) Answer(ctx context.Context, query, sessionID string) (string, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", err
	}

	matches, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	response, outcome := Compose(query, strings.Join(texts, " "))
	metrics.Answers.WithLabelValues(string(outcome)).Inc()

	if err := r.history.Append(ctx, sessionID, models.Turn{User: query, Bot: response}); err != nil {
		metrics.HistoryAppendFailures.Inc()
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record session history")
	}

	log.Debug().
		Str("session_id", sessionID).
		Int("matches", len(matches)).
		Str("outcome", string(outcome)).
		Msg("Query answered")

	return response, nil
}

// Compose builds the answer for query from the retrieved text.
func Compose(query, retrieved string) (string, Outcome) {
	tokens := Tokenize(query)

	var relevant []string
	for _, s := range SplitSentences(retrieved) {
		lower := strings.ToLower(s)
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				relevant = append(relevant, s)
				break
			}
		}
	}

	switch {
	case len(relevant) > 0:
		return models.AnswerPrefix + strings.Join(relevant[:min(2, len(relevant))], " "), OutcomeMatched
	case strings.TrimSpace(retrieved) != "":
		return models.RelatedNoAnswer, OutcomeRelated
	default:
		return models.NoRelevantContent, OutcomeNone
	}
}

// Tokenize lowercases s and returns its word-character runs.
func Tokenize(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

// SplitSentences cuts after '.', '!' or '?' when followed by whitespace. The
// punctuation stays with its sentence; the whitespace is dropped.
func SplitSentences(s string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentencePattern.FindAllStringIndex(s, -1) {
		// loc[0] is the punctuation byte, always single-byte ASCII
		sentences = append(sentences, s[start:loc[0]+1])
		start = loc[1]
	}
	return append(sentences, s[start:])
}
