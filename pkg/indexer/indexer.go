// Package indexer maintains the semantic index: it synthesizes one text
// document per domain record, embeds them in batches and replaces the stored
// index wholesale inside a single transaction.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/llm"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/retry"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

// DefaultBatchSize is how many records are read and embedded per batch.
const DefaultBatchSize = 50

// RebuildOptions narrows a rebuild run. Empty fields mean "everything".
type RebuildOptions struct {
	App    string // only record types of this app, e.g. "achats"
	Type   string // only this record-type key, e.g. "achats.commande"
	DryRun bool   // report current index statistics instead of rebuilding
}

// Indexer rebuilds and inspects the semantic index.
type Indexer interface {
	// RebuildAll deletes every index document and re-synthesizes the index
	// from the domain tables. Only one rebuild may run at a time. With
	// DryRun set it performs no writes and only reports what the index
	// currently holds.
	RebuildAll(ctx context.Context, opts RebuildOptions) (*models.IndexReport, error)
	Stats(ctx context.Context) (*models.IndexReport, error)
}

type indexer struct {
	reader     repositories.DomainReader
	indexRepo  repositories.IndexRepository
	embedder   llm.EmbeddingClient
	registry   *schema.Registry
	batchSize  int
	rebuilding atomic.Bool
	logger     *zap.Logger
}

// New creates an Indexer. batchSize <= 0 selects the default.
func New(
	reader repositories.DomainReader,
	indexRepo repositories.IndexRepository,
	embedder llm.EmbeddingClient,
	registry *schema.Registry,
	batchSize int,
	logger *zap.Logger,
) Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &indexer{
		reader:    reader,
		indexRepo: indexRepo,
		embedder:  embedder,
		registry:  registry,
		batchSize: batchSize,
		logger:    logger.Named("indexer"),
	}
}

var _ Indexer = (*indexer)(nil)

func (ix *indexer) Stats(ctx context.Context) (*models.IndexReport, error) {
	return ix.indexRepo.Stats(ctx)
}

// selectTargets returns the record types a rebuild covers, in priority order.
func (ix *indexer) selectTargets(opts RebuildOptions) []*models.RecordTypeDescriptor {
	var targets []*models.RecordTypeDescriptor
	for _, key := range ix.registry.Keys() {
		d, ok := ix.registry.Descriptor(key)
		if !ok {
			continue
		}
		if opts.Type != "" && d.Key != opts.Type {
			continue
		}
		if opts.App != "" && d.App != opts.App {
			continue
		}
		targets = append(targets, d)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return typePriority(targets[i].Key) < typePriority(targets[j].Key)
	})
	return targets
}

func (ix *indexer) RebuildAll(ctx context.Context, opts RebuildOptions) (*models.IndexReport, error) {
	if !ix.rebuilding.CompareAndSwap(false, true) {
		return nil, apperrors.ErrIndexRebuildRunning
	}
	defer ix.rebuilding.Store(false)

	targets := ix.selectTargets(opts)

	// A dry run only reports what the index currently holds; it reads
	// neither the domain tables nor the embedding API.
	if opts.DryRun {
		return ix.currentStats(ctx, targets)
	}

	if ix.embedder == nil {
		return nil, apperrors.ErrEmbedderUnavailable
	}

	report := &models.IndexReport{PerType: make(map[string]int64)}
	err := ix.indexRepo.ReplaceAll(ctx, func(q database.Querier) error {
		for _, d := range targets {
			if err := ix.walkRecords(ctx, d, func(docs []*models.IndexedDocument) error {
				embedded, skipped := ix.embedBatch(ctx, docs)
				report.Skipped += skipped
				if len(embedded) == 0 {
					return nil
				}
				if err := ix.indexRepo.InsertBatch(ctx, q, embedded); err != nil {
					return err
				}
				report.PerType[d.Key] += int64(len(embedded))
				report.Total += int64(len(embedded))
				return nil
			}, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ix.logger.Info("Index rebuilt",
		zap.Int64("documents", report.Total),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// currentStats reports the active index contents narrowed to the given types.
func (ix *indexer) currentStats(ctx context.Context, targets []*models.RecordTypeDescriptor) (*models.IndexReport, error) {
	stats, err := ix.indexRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.IndexReport{PerType: make(map[string]int64), DryRun: true}
	for _, d := range targets {
		count, ok := stats.PerType[d.Key]
		if !ok {
			continue
		}
		report.PerType[d.Key] = count
		report.Total += count
	}
	return report, nil
}

// walkRecords pages through a table, synthesizes documents batch by batch and
// hands each non-empty batch to sink. Records whose content is too thin are
// counted as skipped.
func (ix *indexer) walkRecords(ctx context.Context, d *models.RecordTypeDescriptor, sink func([]*models.IndexedDocument) error, report *models.IndexReport) error {
	priority := typePriority(d.Key)
	for offset := 0; ; offset += ix.batchSize {
		records, err := ix.reader.List(ctx, d, offset, ix.batchSize)
		if err != nil {
			return fmt.Errorf("failed to list %s for indexing: %w", d.Key, err)
		}
		if len(records) == 0 {
			return nil
		}

		docs := make([]*models.IndexedDocument, 0, len(records))
		for _, record := range records {
			content := SynthesizeContent(d, record)
			if content == "" {
				report.Skipped++
				continue
			}
			docs = append(docs, &models.IndexedDocument{
				RecordType: d.Key,
				RecordID:   models.FormatValue(record[d.IDColumn]),
				Content:    content,
				Priority:   priority,
				IsActive:   true,
			})
		}
		if len(docs) > 0 {
			if err := sink(docs); err != nil {
				return err
			}
		}
		if len(records) < ix.batchSize {
			return nil
		}
	}
}

// embedBatch embeds a batch of documents with retries. A batch that still
// fails is dropped rather than aborting the whole rebuild.
func (ix *indexer) embedBatch(ctx context.Context, docs []*models.IndexedDocument) ([]*models.IndexedDocument, int) {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}

	vectors, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() ([][]float32, error) {
		return ix.embedder.CreateEmbeddings(ctx, contents)
	})
	if err != nil {
		ix.logger.Warn("Embedding batch failed, skipping",
			zap.Int("batch_size", len(docs)),
			zap.Error(err))
		return nil, len(docs)
	}

	for i, doc := range docs {
		doc.Embedding = vectors[i]
	}
	return docs, 0
}
