// Package engine is the orchestrator: it routes a user query through the
// resolution strategies in order (structured exact match, rule-based
// translation, semantic retrieval), validates whichever answer comes back and
// records every interaction. All paths are read-only.
package engine

import (
	"context"
	"errors"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/executor"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/resolver"
	"github.com/gestinv-inc/gestinv-engine/pkg/semantic"
	"github.com/gestinv-inc/gestinv-engine/pkg/translator"
	"github.com/gestinv-inc/gestinv-engine/pkg/validator"
)

// Confidence per resolution strategy: a direct identifier lookup is near
// certain, a parsed plan is strong, a generated answer is indicative.
const (
	confidenceExact      = 0.95
	confidenceTranslator = 0.80
	confidenceSemantic   = 0.60
)

const (
	emptyQueryMessage  = "Veuillez formuler une question."
	injectionMessage   = "Votre demande contient des motifs non autorisés et n'a pas été traitée."
	unresolvedMessage  = "Je n'ai pas pu interpréter votre demande. Précisez le type d'élément recherché (matériel, fournisseur, commande, livraison ou demande d'achat)."
	lookupAction       = "lookup"
	semanticAction     = "semantic"
	rejectedAction     = "rejected"
)

// Engine resolves natural-language queries against the asset database.
type Engine interface {
	Resolve(ctx context.Context, query string) (*models.EngineResponse, error)
	Close()
}

type engine struct {
	resolver     resolver.Resolver
	translator   translator.Translator
	executor     executor.Executor
	answerer     semantic.Answerer
	validator    validator.Validator
	interactions repositories.InteractionRepository
	logger       *zap.Logger
}

// New wires an Engine from its collaborators. Every dependency is explicit;
// nothing is lazily initialized.
func New(
	res resolver.Resolver,
	trans translator.Translator,
	exec executor.Executor,
	answerer semantic.Answerer,
	val validator.Validator,
	interactions repositories.InteractionRepository,
	logger *zap.Logger,
) Engine {
	return &engine{
		resolver:     res,
		translator:   trans,
		executor:     exec,
		answerer:     answerer,
		validator:    val,
		interactions: interactions,
		logger:       logger.Named("engine"),
	}
}

var _ Engine = (*engine)(nil)

func (e *engine) Close() {
	e.executor.Close()
}

func (e *engine) Resolve(ctx context.Context, query string) (*models.EngineResponse, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return e.finish(ctx, query, rejectedAction, models.MethodRejected, 0, 0, emptyQueryMessage), nil
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(trimmed); isSQLi {
		e.logger.Warn("Query rejected by injection guard",
			zap.String("fingerprint", string(fingerprint)))
		return e.finish(ctx, trimmed, rejectedAction, models.MethodRejected, 0, 0, injectionMessage), nil
	}

	// Strategy 1: structured exact match on an identifier in the query. The
	// resolver is advisory; a failure there never aborts the query.
	match, err := e.resolver.Resolve(ctx, trimmed)
	if err != nil {
		e.logger.Warn("Exact-match strategy failed", zap.Error(err))
		match = nil
	}
	if match != nil {
		response, err := e.validated(ctx, match.Response)
		if err != nil {
			return nil, err
		}
		return e.finish(ctx, trimmed, lookupAction, match.Method, 1, confidenceExact, response), nil
	}

	// Strategy 2: rule-based translation to a query plan. An empty list
	// result is not an answer yet; semantic retrieval gets a chance first.
	var fallback func() *models.EngineResponse
	plan, err := e.translator.Translate(trimmed)
	switch {
	case err == nil:
		result, execErr := e.executor.Execute(ctx, plan)
		if execErr != nil && !errors.Is(execErr, apperrors.ErrNoAggregationField) {
			return nil, execErr
		}
		if execErr == nil {
			response, valErr := e.validated(ctx, result.Response)
			if valErr != nil {
				return nil, valErr
			}
			answer := func() *models.EngineResponse {
				return e.finish(ctx, trimmed, string(plan.Action), models.MethodTranslator,
					result.Count, confidenceTranslator, response)
			}
			if result.Count > 0 || plan.Action != models.ActionList {
				return answer(), nil
			}
			fallback = answer
		}
	case !errors.Is(err, apperrors.ErrNoTarget):
		return nil, err
	}

	// Strategy 3: semantic retrieval over the embedded index.
	answer, err := e.answerer.Answer(ctx, trimmed)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmbedderUnavailable) {
			if fallback != nil {
				return fallback(), nil
			}
			return e.finish(ctx, trimmed, rejectedAction, models.MethodRejected, 0, 0, unresolvedMessage), nil
		}
		return nil, err
	}

	response, err := e.validated(ctx, answer.Response)
	if err != nil {
		return nil, err
	}
	return e.finish(ctx, trimmed, semanticAction, models.MethodSemantic,
		len(answer.Documents), confidenceSemantic, response), nil
}

// validated runs coherence then sanitization over a candidate answer; an
// incoherent answer is replaced, never returned verbatim.
func (e *engine) validated(ctx context.Context, response string) (string, error) {
	ok, reason, err := e.validator.ValidateCoherence(ctx, response)
	if err != nil {
		return "", err
	}
	if !ok {
		return validator.FormatRejection(reason), nil
	}
	return e.validator.Sanitize(response), nil
}

// finish records the interaction and shapes the response. Audit failures are
// logged, not surfaced; the user already has an answer.
func (e *engine) finish(ctx context.Context, query, action, method string, count int, confidence float64, response string) *models.EngineResponse {
	if err := e.interactions.Insert(ctx, &models.Interaction{
		Query:       query,
		Action:      action,
		Method:      method,
		ResultCount: count,
		Response:    response,
	}); err != nil {
		e.logger.Warn("Failed to record interaction", zap.Error(err))
	}

	e.logger.Info("Query resolved",
		zap.String("method", method),
		zap.String("action", action),
		zap.Int("result_count", count))

	return &models.EngineResponse{
		Response:   response,
		Action:     action,
		Method:     method,
		Confidence: confidence,
	}
}
