package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rag-assistant/internal/app"
	"rag-assistant/internal/config"
	"rag-assistant/internal/helper"
	"rag-assistant/internal/models"
	"rag-assistant/internal/parser"
	"rag-assistant/internal/vectordb"
)

const (
	configFilePath  = "./configs/config.yaml"
	shutdownTimeout = 10 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	serve := flag.Bool("serve", false, "Run the HTTP API")
	filePath := flag.String("file", "", "Path to a document to ingest")
	strategy := flag.String("strategy", string(models.StrategySimple), "Chunking strategy: simple or paragraph")
	query := flag.String("query", "", "Query to be answered")
	sessionID := flag.String("session", "cli", "Session id for -query and -history")
	history := flag.Bool("history", false, "Print the session history")
	export := flag.String("export", "", "Export the chromem collection to an encrypted file")
	importFile := flag.String("import", "", "Load a chromem collection snapshot written by -export")
	flag.Parse()

	opts := options{
		serve:      *serve,
		filePath:   *filePath,
		strategy:   *strategy,
		query:      *query,
		sessionID:  *sessionID,
		history:    *history,
		export:     *export,
		importFile: *importFile,
	}
	if !opts.any() {
		flag.Usage()
		return
	}
	if err := run(*configPath, opts); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

type options struct {
	serve      bool
	filePath   string
	strategy   string
	query      string
	sessionID  string
	history    bool
	export     string
	importFile string
}

func (o options) any() bool {
	return o.serve || o.filePath != "" || o.query != "" || o.history || o.export != "" || o.importFile != ""
}

func run(configPath string, opts options) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	setLogLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing application")
		}
	}()

	switch {
	case opts.serve:
		return runServer(ctx, cfg, a)
	case opts.filePath != "":
		return ingestFile(ctx, a, opts.filePath, opts.strategy)
	case opts.query != "":
		return answer(ctx, a, opts.query, opts.sessionID)
	case opts.history:
		return printHistory(ctx, a, opts.sessionID)
	case opts.export != "":
		return exportIndex(a, opts.export)
	default:
		return importIndex(a, opts.importFile)
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func runServer(ctx context.Context, cfg *config.Config, a *app.App) error {
	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ingestFile(ctx context.Context, a *app.App, path, strategyName string) error {
	strategy, err := models.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	text, err := parser.ExtractFile(path)
	if err != nil {
		return err
	}
	res, err := a.Ingester.Ingest(ctx, filepath.Base(path), text, strategy)
	if err != nil {
		return err
	}
	return helper.PrintJSON(os.Stdout, res)
}

func answer(ctx context.Context, a *app.App, query, sessionID string) error {
	response, err := a.RAG.Answer(ctx, query, sessionID)
	if err != nil {
		return err
	}
	fmt.Println(response)
	return nil
}

func printHistory(ctx context.Context, a *app.App, sessionID string) error {
	turns, err := a.Sessions.Read(ctx, sessionID)
	if err != nil {
		return err
	}
	return helper.PrintJSON(os.Stdout, turns)
}

func chromemIndex(a *app.App) (*vectordb.ChromemIndex, error) {
	idx, ok := a.Index.(*vectordb.ChromemIndex)
	if !ok {
		return nil, fmt.Errorf("%w: snapshots are only available for the chromem index", models.ErrInvalidArgument)
	}
	return idx, nil
}

func exportIndex(a *app.App, path string) error {
	idx, err := chromemIndex(a)
	if err != nil {
		return err
	}
	if err := helper.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := idx.Export(path); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("entries", idx.Count()).Msg("Index exported")
	return nil
}

func importIndex(a *app.App, path string) error {
	idx, err := chromemIndex(a)
	if err != nil {
		return err
	}
	if err := idx.Import(path); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("entries", idx.Count()).Msg("Index imported")
	return nil
}
