package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"rag-assistant/internal/config"
	"rag-assistant/internal/models"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Filename      string    `bun:"filename,notnull"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
}

type Chunk struct {
	bun.BaseModel    `bun:"table:chunks,alias:c"`
	ID               int64  `bun:"id,pk,autoincrement"`
	ChunkID          string `bun:"chunk_id,notnull,unique"`
	DocumentID       int64  `bun:"document_id,notnull"`
	ChunkIndex       int    `bun:"chunk_index,notnull"`
	ChunkingStrategy string `bun:"chunking_strategy,notnull"`
}

type InterviewBooking struct {
	bun.BaseModel `bun:"table:interview_bookings,alias:ib"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	Email         string    `bun:"email,notnull"`
	Datetime      time.Time `bun:"datetime,notnull"`
}

// ConnectDB opens the sql handle for the configured driver.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrMetadataStoreUnavailable, err)
		}
		// sqlite allows one writer; a single connection also keeps :memory: databases alive
		sqldb.SetMaxOpenConns(1)
		return sqldb, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", models.ErrInvalidArgument, cfg.Driver)
	}
}

// NewDB wraps sqldb in bun with the dialect matching driver.
func NewDB(sqldb *sql.DB, driver string, debug bool) *bun.DB {
	var db *bun.DB
	if driver == config.DriverSQLite {
		db = bun.NewDB(sqldb, sqlitedialect.New())
	} else {
		db = bun.NewDB(sqldb, pgdialect.New())
	}
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Open connects and wraps in one step.
func Open(cfg *config.DatabaseConfig) (*bun.DB, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	return NewDB(sqldb, cfg.Driver, cfg.Debug), nil
}

// InitDB creates the metadata and booking tables if absent.
func InitDB(ctx context.Context, db *bun.DB) error {
	tables := []any{(*Document)(nil), (*Chunk)(nil), (*InterviewBooking)(nil)}
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("%w: failed to create table: %w", models.ErrMetadataStoreUnavailable, err)
		}
	}
	_, err := db.NewCreateIndex().
		Model((*Chunk)(nil)).
		Index("chunks_document_id_idx").
		IfNotExists().
		Column("document_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to create index: %w", models.ErrMetadataStoreUnavailable, err)
	}
	return nil
}

// DropTables removes every table InitDB creates.
func DropTables(ctx context.Context, db *bun.DB) error {
	tables := []any{(*Chunk)(nil), (*Document)(nil), (*InterviewBooking)(nil)}
	for _, model := range tables {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("%w: %w", models.ErrMetadataStoreUnavailable, err)
		}
	}
	return nil
}
