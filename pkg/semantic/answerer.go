package semantic

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/llm"
)

const answerSystemPrompt = `Tu es l'assistant de gestion du parc et des achats d'une entreprise.
Réponds en français, de façon concise, UNIQUEMENT à partir du contexte fourni.
N'invente jamais de noms, de numéros, de montants ni de dates.
Si le contexte ne contient pas la réponse, dis exactement : "Je ne trouve pas cette information dans les données."`

const answerTemperature = 0.1

// Answer is a semantic answer plus the documents that grounded it.
type Answer struct {
	Response  string
	Documents []ScoredDocument
}

// Answerer produces a grounded natural-language answer for a free question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*Answer, error)
}

type answerer struct {
	retriever Retriever
	generator llm.GenerationClient
	topK      int
	logger    *zap.Logger
}

// NewAnswerer creates an Answerer. The generator may be nil; answers then
// fall back to listing the retrieved documents verbatim.
func NewAnswerer(retriever Retriever, generator llm.GenerationClient, topK int, logger *zap.Logger) Answerer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &answerer{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger.Named("semantic"),
	}
}

var _ Answerer = (*answerer)(nil)

func (a *answerer) Answer(ctx context.Context, query string) (*Answer, error) {
	docs, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return &Answer{Response: "Je ne trouve pas cette information dans les données."}, nil
	}

	if a.generator == nil {
		return &Answer{Response: formatDocuments(docs), Documents: docs}, nil
	}

	response, err := a.generator.GenerateResponse(ctx, buildPrompt(query, docs), answerSystemPrompt, answerTemperature)
	if err != nil {
		a.logger.Warn("Answer generation failed, returning retrieved documents", zap.Error(err))
		return &Answer{Response: formatDocuments(docs), Documents: docs}, nil
	}
	return &Answer{Response: strings.TrimSpace(response), Documents: docs}, nil
}

func buildPrompt(query string, docs []ScoredDocument) string {
	var b strings.Builder
	b.WriteString("Contexte :\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Document.Content)
	}
	fmt.Fprintf(&b, "\nQuestion : %s", query)
	return b.String()
}

// formatDocuments is the degraded answer when no generation model is
// configured: the closest records, verbatim.
func formatDocuments(docs []ScoredDocument) string {
	var b strings.Builder
	b.WriteString("Éléments les plus proches de votre question :")
	for i, d := range docs {
		fmt.Fprintf(&b, "\n%d. %s", i+1, d.Document.Content)
	}
	return b.String()
}
