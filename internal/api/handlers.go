package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-assistant/internal/db"
	"rag-assistant/internal/models"
	"rag-assistant/internal/parser"
)

type Ingester interface {
	Ingest(ctx context.Context, filename, text string, strategy models.Strategy) (*models.IngestResult, error)
}

type Answerer interface {
	Answer(ctx context.Context, query, sessionID string) (string, error)
}

type HistoryReader interface {
	Read(ctx context.Context, sessionID string) ([]models.Turn, error)
}

type Booker interface {
	Book(ctx context.Context, name, email, date, clock string) (*db.InterviewBooking, error)
}

// DefaultMaxUploadBytes caps an upload when no WithMaxUploadBytes option is given.
const DefaultMaxUploadBytes int64 = 32 << 20

// Handler serves the HTTP API on top of the pipeline services.
type Handler struct {
	ingester Ingester
	answerer Answerer
	history  HistoryReader
	booker   Booker

	maxUploadBytes int64
}

type Option func(*Handler)

// WithMaxUploadBytes rejects uploads larger than n bytes. Values <= 0 keep the default.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

func NewHandler(ingester Ingester, answerer Answerer, history HistoryReader, booker Booker, opts ...Option) *Handler {
	h := &Handler{
		ingester:       ingester,
		answerer:       answerer,
		history:        history,
		booker:         booker,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	// an empty query is answered like any other
	Query     string `json:"query"`
}

type BookingRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Date  string `json:"date" binding:"required"`
	Time  string `json:"time" binding:"required"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Welcome to the RAG API!"})
}

// Ingest accepts a multipart upload with fields chunking_strategy and file.
func (h *Handler) Ingest(c *gin.Context) {
	strategy, err := models.ParseStrategy(c.PostForm("chunking_strategy"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		abortWithDetail(c, http.StatusBadRequest, "A file upload is required.")
		return
	}
	if !parser.Supported(header.Filename) {
		abortWithDetail(c, http.StatusBadRequest, "Invalid file type.")
		return
	}
	if header.Size > h.maxUploadBytes {
		abortWithDetail(c, http.StatusRequestEntityTooLarge, "File too large.")
		return
	}

	f, err := header.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		abortWithDetail(c, http.StatusRequestEntityTooLarge, "File too large.")
		return
	}

	text, err := parser.ExtractText(header.Filename, data)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := h.ingester.Ingest(c.Request.Context(), header.Filename, text, strategy)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":       header.Filename,
		"message":        "Document processed successfully.",
		"document_id":    res.DocumentID,
		"chunks_created": res.ChunksCreated,
	})
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	response, err := h.answerer.Answer(c.Request.Context(), req.Query, req.SessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

func (h *Handler) History(c *gin.Context) {
	sessionID := c.Param("id")
	turns, err := h.history.Read(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "turns": turns})
}

func (h *Handler) BookInterview(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.booker.Book(c.Request.Context(), req.Name, req.Email, req.Date, req.Time)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Interview booked successfully.", "booking_id": b.ID})
}
