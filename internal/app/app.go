package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"rag-assistant/internal/api"
	"rag-assistant/internal/booking"
	"rag-assistant/internal/config"
	"rag-assistant/internal/db"
	"rag-assistant/internal/embedding"
	"rag-assistant/internal/ingest"
	"rag-assistant/internal/models"
	"rag-assistant/internal/rag"
	"rag-assistant/internal/session"
	"rag-assistant/internal/vectordb"
)

// App holds every long-lived handle. Build it once with New and release it
// with Close.
type App struct {
	Store    *db.Store
	Sessions *session.Store
	Embedder *embedding.Provider
	Index    vectordb.Index

	Ingester *ingest.Orchestrator
	RAG      *rag.RAG
	Booking  *booking.Service

	maxUploadBytes int64
	closers        []func() error
}

// New connects to every backend and wires the services. Any failure closes
// what was already opened.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{maxUploadBytes: cfg.Server.MaxUploadBytes}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	bunDB, err := db.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Store = db.NewStore(bunDB)
	a.closers = append(a.closers, a.Store.Close)
	if err := db.InitDB(ctx, bunDB); err != nil {
		return nil, err
	}

	client, err := session.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.Sessions = session.NewStore(client, cfg.Redis.KeyPrefix)
	a.closers = append(a.closers, a.Sessions.Close)

	a.Embedder, err = embedding.New(&cfg.Embedding)
	if err != nil {
		return nil, err
	}

	a.Index, err = newIndex(ctx, cfg, bunDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.Index.Close)

	a.Ingester = ingest.NewOrchestrator(a.Store, a.Embedder, a.Index)
	a.RAG = rag.NewRAG(a.Embedder, a.Index, a.Sessions)
	a.Booking = booking.NewService(a.Store)

	log.Info().
		Str("database", cfg.Database.Driver).
		Str("vector_db", cfg.VectorDB.Type).
		Str("embedding", cfg.Embedding.Provider+"/"+cfg.Embedding.Model).
		Msg("Application initialized")
	return a, nil
}

func newIndex(ctx context.Context, cfg *config.Config, metadataDB *bun.DB) (vectordb.Index, error) {
	switch cfg.VectorDB.Type {
	case config.VectorDBChromem:
		return vectordb.NewChromemIndex(vectordb.ChromemOptions{
			Path:          cfg.VectorDB.Path,
			Collection:    cfg.VectorDB.Collection,
			InMemory:      cfg.VectorDB.InMemory,
			EncryptionKey: cfg.VectorDB.EncryptionKey,
			Dimension:     cfg.Embedding.Dimension,
		})
	case config.VectorDBPgvector:
		if cfg.Database.Driver == config.DriverPostgres && cfg.VectorDB.DSN == cfg.Database.DSN {
			return vectordb.NewPgvectorIndex(ctx, metadataDB, cfg.Embedding.Dimension, false)
		}
		vecDB, err := db.Open(&config.DatabaseConfig{
			Driver:   config.DriverPostgres,
			DSN:      cfg.VectorDB.DSN,
			Password: cfg.Database.Password,
			Debug:    cfg.Database.Debug,
		})
		if err != nil {
			return nil, err
		}
		idx, err := vectordb.NewPgvectorIndex(ctx, vecDB, cfg.Embedding.Dimension, true)
		if err != nil {
			_ = vecDB.Close()
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unsupported vector db type %q", models.ErrInvalidArgument, cfg.VectorDB.Type)
	}
}

// Router returns the HTTP engine serving this app.
func (a *App) Router() *gin.Engine {
	return api.NewRouter(api.NewHandler(a.Ingester, a.RAG, a.Sessions, a.Booking, api.WithMaxUploadBytes(a.maxUploadBytes)))
}

// Close releases handles in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
