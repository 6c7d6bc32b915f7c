// Command rebuild-index rebuilds the semantic index from the domain tables.
// It is an offline batch operation: run it after data imports or on a
// schedule, never inline with user queries.
//
// Usage:
//
//	rebuild-index [-app achats] [-type achats.commande] [-dry-run]
//
// Configuration comes from the environment (PGHOST, AI_EMBEDDING_URL, ...).
// The process exits non-zero on any unhandled failure during the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/config"
	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/indexer"
	"github.com/gestinv-inc/gestinv-engine/pkg/llm"
	"github.com/gestinv-inc/gestinv-engine/pkg/logging"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

func main() {
	app := flag.String("app", "", "only index record types of this application (parc, achats, demandes)")
	recordType := flag.String("type", "", "only index this record type (e.g. achats.commande)")
	dryRun := flag.Bool("dry-run", false, "report current index statistics without writing anything")
	flag.Parse()

	if err := run(*app, *recordType, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "rebuild-index: %v\n", err)
		os.Exit(1)
	}
}

func run(app, recordType string, dryRun bool) error {
	cfg, err := config.LoadFromEnv("dev")
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	registry := schema.NewRegistry(schema.DefaultCatalog(), cfg.Engine.FuzzyThreshold, logger)
	if err := registry.Build(); err != nil {
		return err
	}

	var embedder llm.EmbeddingClient
	if !dryRun {
		embedder, err = llm.NewEmbeddingClient(&cfg.AI, logger)
		if err != nil {
			return err
		}
	}

	ix := indexer.New(
		repositories.NewDomainReader(db),
		repositories.NewIndexRepository(db),
		embedder,
		registry,
		cfg.Engine.RebuildBatchSize,
		logger,
	)

	report, err := ix.RebuildAll(ctx, indexer.RebuildOptions{
		App:    app,
		Type:   recordType,
		DryRun: dryRun,
	})
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Printf("index holds %d documents\n", report.Total)
	} else {
		fmt.Printf("indexed %d documents (%d skipped)\n", report.Total, report.Skipped)
	}
	for key, count := range report.PerType {
		fmt.Printf("  %-22s %d\n", key, count)
	}

	logger.Info("Rebuild finished",
		zap.Int64("total", report.Total),
		zap.Int("skipped", report.Skipped),
		zap.Bool("dry_run", report.DryRun))
	return nil
}
