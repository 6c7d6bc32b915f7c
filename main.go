package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/config"
	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/engine"
	"github.com/gestinv-inc/gestinv-engine/pkg/executor"
	"github.com/gestinv-inc/gestinv-engine/pkg/handlers"
	"github.com/gestinv-inc/gestinv-engine/pkg/indexer"
	"github.com/gestinv-inc/gestinv-engine/pkg/llm"
	"github.com/gestinv-inc/gestinv-engine/pkg/logging"
	"github.com/gestinv-inc/gestinv-engine/pkg/mcp"
	"github.com/gestinv-inc/gestinv-engine/pkg/mcp/tools"
	"github.com/gestinv-inc/gestinv-engine/pkg/middleware"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/resolver"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
	"github.com/gestinv-inc/gestinv-engine/pkg/semantic"
	"github.com/gestinv-inc/gestinv-engine/pkg/translator"
	"github.com/gestinv-inc/gestinv-engine/pkg/validator"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Migrations failed", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	registry := schema.NewRegistry(schema.DefaultCatalog(), cfg.Engine.FuzzyThreshold, logger)
	if err := registry.Build(); err != nil {
		logger.Fatal("Failed to build schema registry", zap.Error(err))
	}

	reader := repositories.NewDomainReader(db)
	indexRepo := repositories.NewIndexRepository(db)
	interactions := repositories.NewInteractionRepository(db)

	generator, err := llm.NewGenerationClient(&cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create generation client", zap.Error(err))
	}
	embedder, err := llm.NewEmbeddingClient(&cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create embedding client", zap.Error(err))
	}

	exec, err := executor.New(reader, registry, cfg.Engine.MaxResults, logger)
	if err != nil {
		logger.Fatal("Failed to create executor", zap.Error(err))
	}

	retriever := semantic.NewRetriever(indexRepo, embedder, logger)
	eng := engine.New(
		resolver.New(reader, registry, logger),
		translator.New(registry, logger),
		exec,
		semantic.NewAnswerer(retriever, generator, cfg.Engine.RetrievalTopK, logger),
		validator.New(reader, registry, logger),
		interactions,
		logger,
	)
	defer eng.Close()

	ix := indexer.New(reader, indexRepo, embedder, registry, cfg.Engine.RebuildBatchSize, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(eng, ix, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer("gestinv-engine", cfg.Version, logger)
	tools.RegisterQueryTools(mcpServer.MCP(), &tools.QueryToolDeps{Engine: eng, Logger: logger})
	tools.RegisterIndexTools(mcpServer.MCP(), &tools.IndexToolDeps{Indexer: ix, Logger: logger})
	mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting gestinv-engine",
		zap.String("addr", srv.Addr),
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql connection; the pgx pool is opened afterwards.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = migrationDB.Close() }()

	return database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger)
}
