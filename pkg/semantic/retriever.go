// Package semantic answers the questions no structured strategy could: it
// retrieves the closest index documents by embedding similarity and grounds
// a generated answer strictly on them.
package semantic

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/llm"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
)

// DefaultTopK is how many documents ground an answer by default.
const DefaultTopK = 5

// ScoredDocument pairs an index document with its similarity to the query.
type ScoredDocument struct {
	Document *models.IndexedDocument
	Score    float64
}

// Retriever finds the index documents closest to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]ScoredDocument, error)
}

type retriever struct {
	indexRepo repositories.IndexRepository
	embedder  llm.EmbeddingClient
	logger    *zap.Logger
}

// NewRetriever creates a Retriever. The embedder may be nil; Retrieve then
// reports the index as unavailable.
func NewRetriever(indexRepo repositories.IndexRepository, embedder llm.EmbeddingClient, logger *zap.Logger) Retriever {
	return &retriever{
		indexRepo: indexRepo,
		embedder:  embedder,
		logger:    logger.Named("semantic"),
	}
}

var _ Retriever = (*retriever)(nil)

func (r *retriever) Retrieve(ctx context.Context, query string, topK int) ([]ScoredDocument, error) {
	if r.embedder == nil {
		return nil, apperrors.ErrEmbedderUnavailable
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryVec, err := r.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := r.indexRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document: doc,
			Score:    cosineSimilarity(queryVec, doc.Embedding),
		})
	}

	// Score, then priority, then record identity: fully deterministic for a
	// fixed index.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Document.Priority != scored[j].Document.Priority {
			return scored[i].Document.Priority < scored[j].Document.Priority
		}
		return scored[i].Document.RecordID < scored[j].Document.RecordID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// cosineSimilarity computes the cosine of two vectors; mismatched or zero
// vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
