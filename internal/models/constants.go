package models

const (
	// SIMPLE chunking window and stride, in characters
	SimpleChunkSize    = 1000
	SimpleChunkOverlap = 100

	// DefaultTopK is the number of neighbours the answer composer retrieves
	DefaultTopK = 3

	// MaxHistoryTurns bounds a session's history; oldest turns are evicted first
	MaxHistoryTurns = 10

	WordRegex          = `[\p{L}\p{N}_]+`
	SentenceBoundary   = `[.!?]\s+`
	ParagraphSeparator = `\r?\n[ \t\r]*\n`

	AnswerPrefix      = "Based on the document, here's what I found:\n"
	RelatedNoAnswer   = "I found some related information but couldn't identify a direct answer."
	NoRelevantContent = "I couldn't find any relevant information in the documents."

	// chunk text is stored under this payload key in the vector index
	PayloadTextKey = "text"
)
